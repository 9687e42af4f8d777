package reconcile

import (
	"catalog-sync/core/catalog"
)

// Skip records a scope whose listing failed. The pass went on without it.
type Skip struct {
	Parent string       `json:"parent"`
	Kind   catalog.Kind `json:"kind"`
	Error  string       `json:"error"`
}

// PassResult is the outcome of reconciling one kind.
type PassResult struct {
	Kind catalog.Kind `json:"kind"`

	// Remote is the number of live objects after exclusion.
	Remote int `json:"remote"`

	// Catalog is the number of catalog rows before the commit.
	Catalog int `json:"catalog"`

	// Missing are catalog rows no longer present remotely. They are reported, never removed.
	Missing []catalog.Row `json:"-"`

	// New are live objects that were not yet in the catalog.
	New []catalog.Row `json:"-"`

	// Inserted is the number of rows committed.
	Inserted int `json:"inserted"`

	Skips []Skip   `json:"skips,omitempty"`
	Notes []string `json:"notes,omitempty"`
}

// MissingCount returns len(Missing).
func (p PassResult) MissingCount() int { return len(p.Missing) }

// NewCount returns len(New).
func (p PassResult) NewCount() int { return len(p.New) }
