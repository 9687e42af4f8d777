// Package scan mirrors warehouse objects into the catalog.
//
// It provides the descriptor table for the eight mirrored kinds (databases, schemas,
// tables, columns, roles, users, privilege grants to roles, role grants), the interactive
// Prompter used at confirmation gates, and the scan Report, optionally archived to object
// storage as JSON.
//
// Privilege grants are mirrored for databases, schemas and tables only; grants on other
// object types are dropped and listed as notes of the pass. References to excluded roles
// (user owners, default roles, grantors) are stored as NULL.
package scan
