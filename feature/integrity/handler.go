package integrity

import (
	"catalog-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/tables", h.HandleTablesCheck)
	group.Get("/references", h.HandleReferencesCheck)
	group.Get("/archive", h.HandleArchiveCheck)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	logger.WithRayID(h.service.logger, c).Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// HandleIntegrityCheck runs every check. The status is 200 when healthy and 409 otherwise.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckAll(c.Context())
	if err != nil {
		return h.fail(c, "Integrity check failed", err)
	}
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(report)
}

// HandleTablesCheck lists missing catalog tables and columns.
func (h *Handler) HandleTablesCheck(c *fiber.Ctx) error {
	problems, err := h.service.CheckTables(c.Context())
	if err != nil {
		return h.fail(c, "Table check failed", err)
	}
	return c.JSON(fiber.Map{
		"problems": problems,
		"count":    len(problems),
	})
}

// HandleReferencesCheck lists catalog rows whose references resolve to nothing.
func (h *Handler) HandleReferencesCheck(c *fiber.Ctx) error {
	dangling, err := h.service.CheckReferences(c.Context())
	if err != nil {
		return h.fail(c, "Reference check failed", err)
	}
	return c.JSON(fiber.Map{
		"dangling": dangling,
		"count":    len(dangling),
	})
}

// HandleArchiveCheck reports on the scan report bucket.
func (h *Handler) HandleArchiveCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckArchive(c.Context())
	if err != nil {
		return h.fail(c, "Archive check failed", err)
	}
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "scan report archive is disabled"})
	}
	return c.JSON(report)
}
