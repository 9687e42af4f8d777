// Package exclusion filters known system objects (built-in databases, schemas and roles)
// out of remote listings before they are diffed against the catalog.
//
// Matching is case-insensitive and exact. The policy is built once from configuration and
// passed into the reconciliation engine; there is no package-level state.
package exclusion
