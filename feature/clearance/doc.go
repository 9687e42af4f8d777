// Package clearance reports on the warehouse session used for scans: who is connected,
// which roles they hold, and which of the privileges a scan needs are missing.
package clearance
