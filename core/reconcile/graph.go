package reconcile

import (
	"fmt"
	"slices"

	"catalog-sync/core/catalog"
)

// Graph orders kinds so that every kind runs after the kinds it depends on.
type Graph struct {
	order []catalog.Kind
	deps  map[catalog.Kind][]catalog.Kind
}

// NewGraph builds the dependency graph from descriptors. Ties keep registration order.
func NewGraph(descs []Descriptor) (*Graph, error) {
	g := &Graph{deps: make(map[catalog.Kind][]catalog.Kind, len(descs))}
	registered := make([]catalog.Kind, 0, len(descs))
	for _, d := range descs {
		if _, dup := g.deps[d.Kind]; dup {
			return nil, fmt.Errorf("kind %s registered twice", d.Kind)
		}
		var deps []catalog.Kind
		if d.Scope != "" {
			deps = append(deps, d.Scope)
		}
		for _, n := range d.Needs {
			if n != d.Scope && !slices.Contains(deps, n) {
				deps = append(deps, n)
			}
		}
		g.deps[d.Kind] = deps
		registered = append(registered, d.Kind)
	}

	for kind, deps := range g.deps {
		for _, dep := range deps {
			if _, ok := g.deps[dep]; !ok {
				return nil, fmt.Errorf("kind %s depends on unknown kind %s", kind, dep)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[catalog.Kind]int, len(registered))
	var visit func(k catalog.Kind) error
	visit = func(k catalog.Kind) error {
		switch state[k] {
		case visiting:
			return fmt.Errorf("dependency cycle through %s", k)
		case done:
			return nil
		}
		state[k] = visiting
		for _, dep := range g.deps[k] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[k] = done
		g.order = append(g.order, k)
		return nil
	}
	for _, k := range registered {
		if err := visit(k); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Order returns every kind in dependency order.
func (g *Graph) Order() []catalog.Kind {
	return slices.Clone(g.order)
}

// Plan returns the requested kinds in dependency order. Kinds that are not requested
// are not scheduled; their rows are read from the catalog when needed.
func (g *Graph) Plan(targets []catalog.Kind) ([]catalog.Kind, error) {
	for _, t := range targets {
		if _, ok := g.deps[t]; !ok {
			return nil, fmt.Errorf("unknown kind %s", t)
		}
	}
	plan := make([]catalog.Kind, 0, len(targets))
	for _, k := range g.order {
		if slices.Contains(targets, k) {
			plan = append(plan, k)
		}
	}
	return plan, nil
}

// Dependencies returns the direct dependencies of kind.
func (g *Graph) Dependencies(kind catalog.Kind) []catalog.Kind {
	return g.deps[kind]
}

// Closure returns kind and everything it depends on, transitively.
func (g *Graph) Closure(kind catalog.Kind) []catalog.Kind {
	seen := map[catalog.Kind]bool{}
	var out []catalog.Kind
	var walk func(k catalog.Kind)
	walk = func(k catalog.Kind) {
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for _, dep := range g.deps[k] {
			walk(dep)
		}
	}
	walk(kind)
	return out
}
