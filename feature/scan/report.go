package scan

import (
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/reconcile"

	"go.uber.org/zap"
)

// Report summarizes one scan run.
type Report struct {
	RunID      string        `json:"run_id"`
	Target     string        `json:"target"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Passes     []PassSummary `json:"passes"`
	Error      string        `json:"error,omitempty"`
}

// PassSummary is the per-kind part of a report.
type PassSummary struct {
	Kind     catalog.Kind     `json:"kind"`
	Remote   int              `json:"remote"`
	Catalog  int              `json:"catalog"`
	Missing  int              `json:"missing"`
	New      int              `json:"new"`
	Inserted int              `json:"inserted"`
	Skips    []reconcile.Skip `json:"skips,omitempty"`
	Notes    []string         `json:"notes,omitempty"`
}

func newReport(runID, target string, started, finished time.Time, results []reconcile.PassResult, runErr error) *Report {
	r := &Report{
		RunID:      runID,
		Target:     target,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Passes:     make([]PassSummary, 0, len(results)),
	}
	for _, res := range results {
		r.Passes = append(r.Passes, PassSummary{
			Kind:     res.Kind,
			Remote:   res.Remote,
			Catalog:  res.Catalog,
			Missing:  res.MissingCount(),
			New:      res.NewCount(),
			Inserted: res.Inserted,
			Skips:    res.Skips,
			Notes:    res.Notes,
		})
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r
}

// Inserted returns the number of rows committed across all passes.
func (r *Report) Inserted() int {
	n := 0
	for _, p := range r.Passes {
		n += p.Inserted
	}
	return n
}

// Log writes the report through the logger, one line per pass.
func (r *Report) Log(logger *zap.Logger) {
	for _, p := range r.Passes {
		logger.Info("Pass summary",
			zap.String("run_id", r.RunID),
			zap.String("kind", string(p.Kind)),
			zap.Int("remote", p.Remote),
			zap.Int("catalog", p.Catalog),
			zap.Int("missing", p.Missing),
			zap.Int("new", p.New),
			zap.Int("inserted", p.Inserted),
			zap.Int("skipped_scopes", len(p.Skips)))
	}
	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("target", r.Target),
		zap.Int("inserted", r.Inserted()),
		zap.Duration("duration", r.FinishedAt.Sub(r.StartedAt)),
	}
	if r.Error != "" {
		logger.Error("Scan aborted", append(fields, zap.String("error", r.Error))...)
		return
	}
	logger.Info("Scan completed", fields...)
}
