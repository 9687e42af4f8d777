package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"catalog-sync/core/loader"
	"catalog-sync/core/logger"
	"catalog-sync/core/middleware/auth"
	"catalog-sync/core/middleware/rayid"
	"catalog-sync/core/storage"
	"catalog-sync/feature/integrity"
	"catalog-sync/feature/objects"
	"catalog-sync/feature/scan"
	"catalog-sync/feature/tags"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd starts the read API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long:  `Starts the read-only HTTP API exposing catalog objects, tags and archived scan reports.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		logg := e.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		store, closeCatalog, err := e.openCatalog()
		if err != nil {
			return err
		}
		defer closeCatalog()

		// The archive is optional; /scans answers 404 without it.
		var (
			archive *scan.Archive
			client  storage.Client
		)
		if e.cfg.Storage.Enabled {
			client, err = storage.NewClient(e.cfg.Storage)
			if err != nil {
				return err
			}
			archive = scan.NewArchive(client, e.cfg.Storage)
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		svc := objects.NewService(store, tags.NewService(store, logg), archive, objects.NewCache(e.cfg.Server.CacheTTL()), logg)
		mgr.Register(objects.NewFeature(svc))
		mgr.Register(integrity.NewFeature(store, client, e.cfg.Storage, logg))

		// RayID first so that every later log line can carry it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: e.cfg.Server.ApiKey}))
		if e.cfg.Server.ApiKey == "" {
			logg.Warn("No API key configured, the API is unprotected")
		}

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			return err
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", e.cfg.Server.Port))
			errCh <- app.Listen(e.cfg.Server.Address())
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-c:
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
