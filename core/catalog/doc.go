// Package catalog is the local mirror of the warehouse object graph.
//
// Tables are append-only: the engine inserts rows and reads them back to learn their identities,
// it never updates or deletes. Identities are assigned by the catalog database and are the only
// linkage children carry to their parents (database_id, schema_id, role_id, ...).
//
// All reads go through Store.Select with a bound Predicate; all writes go through
// Store.InsertBatch, which is atomic per call.
package catalog
