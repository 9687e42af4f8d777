package reconcile

import (
	"context"

	"catalog-sync/core/catalog"
)

// Inventory is the live side of a reconciliation.
// Scoped listings that fail must return *warehouse.RemoteQueryError so the engine can skip the scope.
type Inventory interface {
	ListTopLevel(ctx context.Context, kind catalog.Kind) ([]catalog.Row, error)
	ListScoped(ctx context.Context, kind catalog.Kind, path []string) ([]catalog.Row, error)
}

// Store is the catalog side of a reconciliation. Any error it returns is fatal.
type Store interface {
	Select(ctx context.Context, table string, columns []string, where *catalog.Predicate) ([]catalog.Row, error)
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error
}

// Scope identifies the parent a scoped listing was made under.
// Both fields are empty for top-level kinds.
type Scope struct {
	Parent catalog.Row
	Path   []string
}

// Descriptor tells the engine everything kind-specific about one pass.
// Optional hooks may be left nil.
type Descriptor struct {
	Kind  catalog.Kind
	Table string

	// Scope is the kind whose catalog rows drive scoped listings. Empty for top-level kinds.
	Scope catalog.Kind

	// Needs lists the kinds whose rows Normalize and Denormalize look up, besides Scope.
	Needs []catalog.Kind

	// SkipScope drops a parent before it is listed. Optional.
	SkipScope func(st *State, path []string) bool

	// Exclude drops a remote record before it is normalized. Optional.
	Exclude func(st *State, scope Scope, rec catalog.Row) bool

	// Normalize turns a remote record into a catalog-shaped row carrying parent identities
	// and display names. A nil row with a nil error drops the record.
	Normalize func(st *State, scope Scope, rec catalog.Row) (catalog.Row, error)

	// Denormalize adds display names to a row read from the catalog. Optional.
	Denormalize func(st *State, row catalog.Row) error

	// Key extracts the natural key from a catalog-shaped row.
	Key func(row catalog.Row) string

	// Path returns the remote path of a catalog row. Kinds that scope other kinds or are
	// referenced by name must provide it.
	Path func(st *State, row catalog.Row) []string

	// InsertColumns are written on commit, in order.
	InsertColumns []string

	// DisplayColumns are shown to the operator at a confirmation gate.
	DisplayColumns []string
}
