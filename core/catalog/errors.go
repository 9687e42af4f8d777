package catalog

import "fmt"

// QueryError is returned for any catalog failure (store unreachable, malformed SQL,
// constraint violation). It is fatal for a reconciliation run: the catalog is the source
// of truth for identities and cannot be partially trusted.
type QueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("catalog %s on %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
