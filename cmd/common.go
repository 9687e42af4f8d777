package cmd

import (
	"context"
	"fmt"

	"catalog-sync/core/catalog"
	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/exclusion"
	"catalog-sync/core/logger"
	"catalog-sync/core/warehouse"

	"go.uber.org/zap"
)

// env is what every command starts from: configuration and a logger.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(".", configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &env{cfg: cfg, logger: l}, nil
}

func (e *env) policy() exclusion.Policy {
	return exclusion.NewPolicy(e.cfg.Exclusion)
}

// openCatalog connects to the catalog database. The returned func releases it.
func (e *env) openCatalog() (*catalog.Store, func(), error) {
	db, err := database.Connect(e.cfg.Catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}
	closeFn := func() {
		if err := database.Close(db); err != nil {
			e.logger.Warn("Failed to close catalog connection", zap.Error(err))
		}
	}
	return catalog.NewStore(db, e.cfg.Catalog.Namespace), closeFn, nil
}

// openWarehouse opens the single warehouse session of a command. The returned func releases it.
func (e *env) openWarehouse(ctx context.Context) (*warehouse.Inventory, func(), error) {
	inv, err := warehouse.Open(ctx, e.cfg.Warehouse, e.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	closeFn := func() {
		if err := inv.Close(); err != nil {
			e.logger.Warn("Failed to close warehouse session", zap.Error(err))
		}
	}
	return inv, closeFn, nil
}
