// Package integrity checks the health of the catalog and its surroundings.
//
// # Checks
//
//   - Tables: every catalog table exists with the columns scans write.
//   - References: every identity column points at an existing row. The catalog is
//     append-only, so a dangling reference means rows were edited outside this tool.
//   - Archive: the scan report bucket exists, and how many reports it holds.
//
// The checks are exposed under /integrity and through the check command.
package integrity
