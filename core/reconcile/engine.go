package reconcile

import (
	"context"
	"errors"
	"fmt"

	"catalog-sync/core/catalog"
	"catalog-sync/core/exclusion"
	"catalog-sync/core/warehouse"

	"go.uber.org/zap"
)

// Options wires an Engine to its collaborators.
type Options struct {
	Inventory Inventory
	Store     Store
	Policy    exclusion.Policy
	Decider   Decider
	Logger    *zap.Logger
}

// Engine runs reconciliation passes in dependency order. It is single-threaded:
// one pass at a time, one remote call at a time.
type Engine struct {
	inventory   Inventory
	store       Store
	policy      exclusion.Policy
	decider     Decider
	logger      *zap.Logger
	graph       *Graph
	descriptors map[catalog.Kind]Descriptor
}

// NewEngine validates the descriptor table and builds the dependency graph.
func NewEngine(opts Options, descs ...Descriptor) (*Engine, error) {
	if opts.Inventory == nil || opts.Store == nil {
		return nil, errors.New("engine needs an inventory and a store")
	}
	graph, err := NewGraph(descs)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		inventory:   opts.Inventory,
		store:       opts.Store,
		policy:      opts.Policy,
		decider:     opts.Decider,
		logger:      opts.Logger,
		graph:       graph,
		descriptors: make(map[catalog.Kind]Descriptor, len(descs)),
	}
	if e.decider == nil {
		e.decider = AutoApprove
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	for _, d := range descs {
		if d.Table == "" || d.Key == nil || d.Normalize == nil {
			return nil, fmt.Errorf("descriptor for %s is incomplete", d.Kind)
		}
		if d.Scope != "" {
			if scope, ok := findDescriptor(descs, d.Scope); !ok || scope.Path == nil {
				return nil, fmt.Errorf("scope %s of %s has no path", d.Scope, d.Kind)
			}
		}
		e.descriptors[d.Kind] = d
	}
	return e, nil
}

func findDescriptor(descs []Descriptor, kind catalog.Kind) (Descriptor, bool) {
	for _, d := range descs {
		if d.Kind == kind {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Graph returns the dependency graph of the registered kinds.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Run reconciles the target kinds in dependency order. Results of completed passes are
// returned even when a later pass fails; a failed pass leaves its own batch uncommitted.
func (e *Engine) Run(ctx context.Context, targets []catalog.Kind) ([]PassResult, error) {
	plan, err := e.graph.Plan(targets)
	if err != nil {
		return nil, err
	}

	st := newState(e)
	results := make([]PassResult, 0, len(plan))
	for _, kind := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := e.runPass(ctx, st, kind)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (e *Engine) runPass(ctx context.Context, st *State, kind catalog.Kind) (PassResult, error) {
	d := e.descriptors[kind]
	res := PassResult{Kind: kind}
	st.beginPass(&res)
	log := e.logger.With(zap.String("kind", string(kind)))

	if err := st.ensure(ctx, e.graph.Dependencies(kind)...); err != nil {
		return res, err
	}

	log.Info("Fetching remote objects")
	remote, err := e.fetch(ctx, st, d, &res)
	if err != nil {
		return res, err
	}
	res.Remote = len(remote)

	current, err := st.load(ctx, kind)
	if err != nil {
		return res, err
	}
	res.Catalog = len(current.Rows)

	plan := Diff(d, remote, current.Rows)
	res.Missing = plan.Missing
	res.New = plan.New
	log.Info("Diffed against catalog",
		zap.Int("remote", res.Remote),
		zap.Int("catalog", res.Catalog),
		zap.Int("missing", len(plan.Missing)),
		zap.Int("new", len(plan.New)))

	if len(plan.Missing) > 0 {
		log.Warn("Catalog objects could not be found remotely", zap.Int("count", len(plan.Missing)))
		if err := e.gate(ctx, d, StageMissing, plan.Missing); err != nil {
			return res, err
		}
	}

	if len(plan.New) > 0 {
		if err := e.gate(ctx, d, StageNew, plan.New); err != nil {
			return res, err
		}
		inserted, err := Apply(ctx, e.store, d, plan)
		if err != nil {
			return res, err
		}
		res.Inserted = inserted

		refreshed, err := st.load(ctx, kind)
		if err != nil {
			return res, err
		}
		if err := verifyCommitted(d, plan.New, refreshed.Rows); err != nil {
			return res, err
		}
		log.Info("Recorded new objects", zap.Int("count", inserted))
	}

	for _, s := range res.Skips {
		log.Warn("Skipped scope", zap.String("parent", s.Parent), zap.String("error", s.Error))
	}
	for _, n := range res.Notes {
		log.Warn(n)
	}
	return res, nil
}

// fetch lists, filters and normalizes the live objects of one kind.
func (e *Engine) fetch(ctx context.Context, st *State, d Descriptor, res *PassResult) ([]catalog.Row, error) {
	if d.Scope == "" {
		recs, err := e.inventory.ListTopLevel(ctx, d.Kind)
		if err != nil {
			return nil, err
		}
		return e.normalize(st, d, Scope{}, recs, res)
	}

	scopeDesc := e.descriptors[d.Scope]
	var out []catalog.Row
	for _, parent := range st.Get(d.Scope).Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := scopeDesc.Path(st, parent)
		if d.SkipScope != nil && d.SkipScope(st, path) {
			continue
		}

		recs, err := e.inventory.ListScoped(ctx, d.Kind, path)
		if err != nil {
			var rqe *warehouse.RemoteQueryError
			if !errors.As(err, &rqe) {
				return nil, err
			}
			// A cancelled run is an abort, not an inaccessible scope.
			if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return nil, ctxErr
			}
			res.Skips = append(res.Skips, Skip{Parent: warehouse.JoinPath(path...), Kind: d.Kind, Error: err.Error()})
			st.skipped[d.Kind] = true
			continue
		}

		rows, err := e.normalize(st, d, Scope{Parent: parent, Path: path}, recs, res)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (e *Engine) normalize(st *State, d Descriptor, scope Scope, recs []catalog.Row, res *PassResult) ([]catalog.Row, error) {
	out := make([]catalog.Row, 0, len(recs))
	for _, rec := range recs {
		if d.Exclude != nil && d.Exclude(st, scope, rec) {
			continue
		}
		row, err := d.Normalize(st, scope, rec)
		if err != nil {
			var ue *UnresolvedError
			if errors.As(err, &ue) && st.skippedWithin(e.graph.Closure(ue.Kind)) {
				// The reference lives under a scope that failed to list earlier in this run.
				res.Skips = append(res.Skips, Skip{Parent: warehouse.JoinPath(scope.Path...), Kind: d.Kind, Error: err.Error()})
				continue
			}
			return nil, &InvariantError{Kind: d.Kind, Err: err}
		}
		if row == nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (e *Engine) gate(ctx context.Context, d Descriptor, stage Stage, rows []catalog.Row) error {
	decision, err := e.decider.Decide(ctx, Gate{Kind: d.Kind, Stage: stage, Rows: rows, Columns: d.DisplayColumns})
	if err != nil {
		return fmt.Errorf("failed to get a decision for %s %s: %w", stage, d.Kind, err)
	}
	if decision != Proceed {
		return &DeclinedError{Kind: d.Kind, Stage: stage}
	}
	return nil
}

// verifyCommitted checks that every inserted row is visible, with an identity, after the refetch.
func verifyCommitted(d Descriptor, inserted, refreshed []catalog.Row) error {
	have := make(map[string]bool, len(refreshed))
	for _, r := range refreshed {
		if r.ID() != 0 {
			have[d.Key(r)] = true
		}
	}
	for _, r := range inserted {
		if !have[d.Key(r)] {
			return &InvariantError{Kind: d.Kind, Err: fmt.Errorf("inserted row %s not found after commit", d.Key(r))}
		}
	}
	return nil
}
