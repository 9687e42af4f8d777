package scan

import (
	"context"
	"fmt"
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/exclusion"
	"catalog-sync/core/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TargetAll reconciles every kind.
const TargetAll = "all"

// Service runs scans against one warehouse session and one catalog.
type Service struct {
	inventory reconcile.Inventory
	store     *catalog.Store
	policy    exclusion.Policy
	decider   reconcile.Decider
	archive   *Archive
	logger    *zap.Logger
}

// NewService creates a scan service. archive may be nil to disable report uploads.
func NewService(inventory reconcile.Inventory, store *catalog.Store, policy exclusion.Policy, decider reconcile.Decider, archive *Archive, logger *zap.Logger) *Service {
	return &Service{
		inventory: inventory,
		store:     store,
		policy:    policy,
		decider:   decider,
		archive:   archive,
		logger:    logger,
	}
}

// Targets resolves a scan target to kinds.
func Targets(target string) ([]catalog.Kind, error) {
	if target == TargetAll {
		return catalog.Kinds, nil
	}
	k, err := catalog.ParseKind(target)
	if err != nil {
		return nil, err
	}
	return []catalog.Kind{k}, nil
}

// Scan reconciles target and returns its report. The report is returned even when the
// run fails, covering the passes that completed.
func (s *Service) Scan(ctx context.Context, target string) (*Report, error) {
	kinds, err := Targets(target)
	if err != nil {
		return nil, err
	}

	engine, err := reconcile.NewEngine(reconcile.Options{
		Inventory: s.inventory,
		Store:     s.store,
		Policy:    s.policy,
		Decider:   s.decider,
		Logger:    s.logger,
	}, Descriptors()...)
	if err != nil {
		return nil, err
	}

	// Every table the run reads must exist before anything is listed remotely.
	required := map[catalog.Kind]bool{}
	for _, k := range kinds {
		for _, dep := range engine.Graph().Closure(k) {
			required[dep] = true
		}
	}
	var verify []catalog.Kind
	for _, k := range catalog.Kinds {
		if required[k] {
			verify = append(verify, k)
		}
	}
	if err := s.store.Verify(ctx, verify); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	s.logger.Info("Scan started",
		zap.String("run_id", runID),
		zap.String("target", target),
		zap.Strings("excluded_databases", s.policy.Names(exclusion.Databases)),
		zap.Strings("excluded_schemas", s.policy.Names(exclusion.Schemas)),
		zap.Strings("excluded_roles", s.policy.Names(exclusion.Roles)))

	started := time.Now()
	results, runErr := engine.Run(ctx, kinds)
	report := newReport(runID, target, started, time.Now(), results, runErr)
	report.Log(s.logger)

	if s.archive != nil {
		// A cancelled run still gets its report archived.
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		key, err := s.archive.Put(archiveCtx, report)
		if err != nil {
			s.logger.Warn("Failed to archive scan report", zap.String("run_id", runID), zap.Error(err))
		} else {
			s.logger.Info("Scan report archived", zap.String("key", key))
		}
	}

	if runErr != nil {
		return report, fmt.Errorf("scan %s failed: %w", target, runErr)
	}
	return report, nil
}
