package integrity

import (
	"context"

	"catalog-sync/core/catalog"
	"catalog-sync/core/storage"
	"catalog-sync/feature/integrity/checks"

	"go.uber.org/zap"
)

// Service handles integrity checks of the catalog and the report archive.
type Service struct {
	store  *catalog.Store
	client storage.Client
	cfg    storage.Config
	logger *zap.Logger
}

// NewService creates a new integrity service. client may be nil when archiving is off.
func NewService(store *catalog.Store, client storage.Client, cfg storage.Config, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Report is the combined result of every check.
type Report struct {
	Tables     []string              `json:"tables"`
	References []checks.Dangling     `json:"references"`
	Archive    *checks.ArchiveReport `json:"archive,omitempty"`
}

// Healthy reports whether no check found a problem.
func (r *Report) Healthy() bool {
	return len(r.Tables) == 0 && len(r.References) == 0 && (r.Archive == nil || r.Archive.Exists)
}

// CheckTables returns missing catalog tables and columns.
func (s *Service) CheckTables(ctx context.Context) ([]string, error) {
	return checks.CheckTables(ctx, s.store)
}

// CheckReferences returns dangling identity references.
func (s *Service) CheckReferences(ctx context.Context) ([]checks.Dangling, error) {
	return checks.CheckReferences(ctx, s.store)
}

// CheckArchive inspects the report bucket. It returns nil when archiving is off.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, nil
	}
	return checks.CheckArchive(ctx, s.client, s.cfg.Bucket, s.cfg.Prefix)
}

// CheckAll runs every check. References are only checked once the tables are sound.
func (s *Service) CheckAll(ctx context.Context) (*Report, error) {
	r := &Report{}
	var err error
	if r.Tables, err = s.CheckTables(ctx); err != nil {
		return nil, err
	}
	if len(r.Tables) == 0 {
		if r.References, err = s.CheckReferences(ctx); err != nil {
			return nil, err
		}
	}
	if r.Archive, err = s.CheckArchive(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("Integrity check finished",
		zap.Int("table_problems", len(r.Tables)),
		zap.Int("dangling_references", len(r.References)),
		zap.Bool("healthy", r.Healthy()))
	return r, nil
}
