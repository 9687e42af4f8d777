package checks

import (
	"context"

	"catalog-sync/core/catalog"
)

// CheckTables returns every missing catalog table or column.
func CheckTables(ctx context.Context, store *catalog.Store) ([]string, error) {
	return store.Problems(ctx, catalog.Kinds)
}
