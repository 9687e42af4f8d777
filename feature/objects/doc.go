// Package objects exposes the mirrored catalog over HTTP for the governance layer.
//
// # Routes
//
//	GET /objects/:kind        every row of a kind, parent names resolved
//	GET /objects/:kind/:id    one row by catalog identity
//	GET /tags                 tags with allowed values (?name= substring filter)
//	GET /tags/assignments     tag assignments (?type= object type filter)
//	GET /scans                archived scan reports, newest first
//	GET /scans/<key>          one archived report
//
// Catalog reads are cached per kind for the configured TTL. Concurrent misses share a
// single load, so a burst of requests after expiry reads the catalog once.
package objects
