package reconcile

import (
	"context"
	"fmt"
	"strings"

	"catalog-sync/core/catalog"
	"catalog-sync/core/exclusion"
)

// Result is the catalog view of one kind: its rows, denormalized, indexed by identity
// and by remote path.
type Result struct {
	Kind catalog.Kind
	Rows []catalog.Row

	byID   map[int64]catalog.Row
	byPath map[string]int64
}

func newResult(kind catalog.Kind) *Result {
	return &Result{
		Kind:   kind,
		byID:   make(map[int64]catalog.Row),
		byPath: make(map[string]int64),
	}
}

// Row returns the row with the given identity.
func (r *Result) Row(id int64) (catalog.Row, bool) {
	row, ok := r.byID[id]
	return row, ok
}

// Lookup resolves a remote path to a catalog identity.
func (r *Result) Lookup(path ...string) (int64, bool) {
	id, ok := r.byPath[pathKey(path)]
	return id, ok
}

// pathKey joins path segments with a separator that cannot appear in identifiers.
func pathKey(path []string) string {
	return strings.Join(path, "\x1f")
}

// State carries the per-kind catalog views through one run. Kinds reconciled earlier
// in the run hand their refreshed rows to later kinds; kinds not scheduled are read
// from the catalog on first use.
type State struct {
	engine  *Engine
	results map[catalog.Kind]*Result
	skipped map[catalog.Kind]bool
	pass    *PassResult
	noted   map[string]bool
}

func newState(e *Engine) *State {
	return &State{
		engine:  e,
		results: make(map[catalog.Kind]*Result),
		skipped: make(map[catalog.Kind]bool),
	}
}

// Policy returns the exclusion policy of the run.
func (s *State) Policy() exclusion.Policy {
	return s.engine.policy
}

// Get returns the loaded view of kind. Every kind a descriptor declares through Scope
// or Needs is loaded before its hooks run; any other kind yields an empty view.
func (s *State) Get(kind catalog.Kind) *Result {
	if r, ok := s.results[kind]; ok {
		return r
	}
	return newResult(kind)
}

// Note records a message against the current pass. Repeated messages are kept once.
func (s *State) Note(format string, args ...any) {
	if s.pass == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if s.noted[msg] {
		return
	}
	s.noted[msg] = true
	s.pass.Notes = append(s.pass.Notes, msg)
}

func (s *State) beginPass(p *PassResult) {
	s.pass = p
	s.noted = make(map[string]bool)
}

// skippedWithin reports whether any of kinds had a skipped scope in this run.
func (s *State) skippedWithin(kinds []catalog.Kind) bool {
	for _, k := range kinds {
		if s.skipped[k] {
			return true
		}
	}
	return false
}

// ensure loads the given kinds and their dependencies unless already present.
func (s *State) ensure(ctx context.Context, kinds ...catalog.Kind) error {
	for _, k := range kinds {
		if _, ok := s.results[k]; ok {
			continue
		}
		if _, err := s.load(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// load reads kind from the catalog, replacing any earlier view of it.
func (s *State) load(ctx context.Context, kind catalog.Kind) (*Result, error) {
	d, ok := s.engine.descriptors[kind]
	if !ok {
		return nil, &InvariantError{Kind: kind, Err: fmt.Errorf("no descriptor registered")}
	}
	if err := s.ensure(ctx, s.engine.graph.Dependencies(kind)...); err != nil {
		return nil, err
	}

	rows, err := s.engine.store.Select(ctx, d.Table, nil, nil)
	if err != nil {
		return nil, err
	}

	res := newResult(kind)
	for _, row := range rows {
		if d.Denormalize != nil {
			if err := d.Denormalize(s, row); err != nil {
				return nil, &InvariantError{Kind: kind, Err: err}
			}
		}
		res.Rows = append(res.Rows, row)
		res.byID[row.ID()] = row
		if d.Path != nil {
			res.byPath[pathKey(d.Path(s, row))] = row.ID()
		}
	}
	s.results[kind] = res
	return res, nil
}

// Snapshot reads kind, and every kind it depends on, from the catalog with parent names
// denormalized. Nothing is listed remotely.
func Snapshot(ctx context.Context, store Store, descs []Descriptor, kind catalog.Kind) (*Result, error) {
	graph, err := NewGraph(descs)
	if err != nil {
		return nil, err
	}
	e := &Engine{store: store, graph: graph, descriptors: make(map[catalog.Kind]Descriptor, len(descs))}
	for _, d := range descs {
		e.descriptors[d.Kind] = d
	}
	return newState(e).load(ctx, kind)
}
