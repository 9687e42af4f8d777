// Package database handles catalog database connections and schema inspection.
//
// It wraps GORM to configure MySQL (shared catalogs) or SQLite (local catalogs and tests)
// connections based on the application's configuration.
//
// # Connect
//
// Connect establishes a connection and verifies it with a bounded ping. SQLite connections
// are pinned to a single pooled connection so ":memory:" databases survive across queries.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a catalog table. The catalog store uses it to verify
// that `init` has been run before a scan starts writing.
//
// # Usage
//
//	db, err := database.Connect(cfg.Catalog)
//	if err != nil {
//	    return err
//	}
//	defer database.Close(db)
package database
