package objects

import (
	"context"
	"errors"

	"catalog-sync/core/catalog"
	"catalog-sync/core/reconcile"
	"catalog-sync/feature/scan"
	"catalog-sync/feature/tags"

	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned by report lookups when no archive is configured.
var ErrArchiveDisabled = errors.New("scan report archive is disabled")

// Service serves the mirrored catalog to readers.
type Service struct {
	store   *catalog.Store
	tags    *tags.Service
	archive *scan.Archive
	cache   *Cache
	logger  *zap.Logger
}

// NewService creates a read service. archive may be nil.
func NewService(store *catalog.Store, tagSvc *tags.Service, archive *scan.Archive, cache *Cache, logger *zap.Logger) *Service {
	return &Service{store: store, tags: tagSvc, archive: archive, cache: cache, logger: logger}
}

// snapshot returns the denormalized rows of kind.
func (s *Service) snapshot(ctx context.Context, kind catalog.Kind) (*reconcile.Result, error) {
	v, err := s.cache.GetOrLoad(ctx, "objects:"+string(kind), func(ctx context.Context) (any, error) {
		s.logger.Debug("Loading catalog snapshot", zap.String("kind", string(kind)))
		return reconcile.Snapshot(ctx, s.store, scan.Descriptors(), kind)
	})
	if err != nil {
		return nil, err
	}
	return v.(*reconcile.Result), nil
}

// List returns every catalog row of kind.
func (s *Service) List(ctx context.Context, kind catalog.Kind) ([]catalog.Row, error) {
	res, err := s.snapshot(ctx, kind)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Get returns one row of kind by identity.
func (s *Service) Get(ctx context.Context, kind catalog.Kind, id int64) (catalog.Row, bool, error) {
	res, err := s.snapshot(ctx, kind)
	if err != nil {
		return nil, false, err
	}
	row, ok := res.Row(id)
	return row, ok, nil
}

// Tags lists tags whose name contains nameLike.
func (s *Service) Tags(ctx context.Context, nameLike string) ([]tags.TagView, error) {
	return s.tags.List(ctx, nameLike)
}

// Assignments lists tag assignments, optionally for one object type.
func (s *Service) Assignments(ctx context.Context, objType tags.ObjectType) ([]tags.AssignmentView, error) {
	return s.tags.Assignments(ctx, objType)
}

// Reports lists the archived scan reports.
func (s *Service) Reports(ctx context.Context) ([]scan.ReportInfo, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx)
}

// Report fetches one archived scan report.
func (s *Service) Report(ctx context.Context, key string) (*scan.Report, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.Get(ctx, key)
}
