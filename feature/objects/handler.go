package objects

import (
	"errors"
	"strconv"

	"catalog-sync/core/catalog"
	"catalog-sync/core/logger"
	"catalog-sync/feature/tags"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for catalog objects, tags and scan reports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the read routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	objects := app.Group("/objects")
	objects.Get("/:kind", h.HandleListObjects)
	objects.Get("/:kind/:id", h.HandleGetObject)

	app.Get("/tags", h.HandleListTags)
	app.Get("/tags/assignments", h.HandleListAssignments)

	scans := app.Group("/scans")
	scans.Get("/", h.HandleListReports)
	scans.Get("/*", h.HandleGetReport)
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// HandleListObjects returns every catalog row of a kind, with parent names resolved.
func (h *Handler) HandleListObjects(c *fiber.Ctx) error {
	kind, err := catalog.ParseKind(c.Params("kind"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	l := logger.WithRayID(h.service.logger, c)

	rows, err := h.service.List(c.Context(), kind)
	if err != nil {
		l.Error("Catalog read failed", zap.String("kind", string(kind)), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"kind":  kind,
		"count": len(rows),
		"rows":  rows,
	})
}

// HandleGetObject returns one catalog row by identity.
func (h *Handler) HandleGetObject(c *fiber.Ctx) error {
	kind, err := catalog.ParseKind(c.Params("kind"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "id must be a positive integer")
	}
	l := logger.WithRayID(h.service.logger, c)

	row, ok, err := h.service.Get(c.Context(), kind, id)
	if err != nil {
		l.Error("Catalog read failed", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "object not found")
	}
	return c.JSON(row)
}

// HandleListTags returns tags with their allowed values. ?name= filters by substring.
func (h *Handler) HandleListTags(c *fiber.Ctx) error {
	found, err := h.service.Tags(c.Context(), c.Query("name"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Tag read failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(found)
}

// HandleListAssignments returns tag assignments. ?type= restricts the object type.
func (h *Handler) HandleListAssignments(c *fiber.Ctx) error {
	found, err := h.service.Assignments(c.Context(), tags.ObjectType(c.Query("type")))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Tag assignment read failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(found)
}

// HandleListReports lists archived scan reports, newest first.
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	found, err := h.service.Reports(c.Context())
	if errors.Is(err, ErrArchiveDisabled) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Report listing failed", zap.Error(err))
		return errorJSON(c, fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(found)
}

// HandleGetReport returns one archived scan report by key.
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return h.HandleListReports(c)
	}
	report, err := h.service.Report(c.Context(), key)
	if errors.Is(err, ErrArchiveDisabled) {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Report fetch failed", zap.String("key", key), zap.Error(err))
		return errorJSON(c, fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(report)
}
