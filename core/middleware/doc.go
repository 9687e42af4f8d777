// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting every endpoint.
//   - rayid: tags every request with a ray id, stored in the context locals and echoed in
//     the response headers for tracing.
//
// RayID must be registered first so that every later log line can carry the id.
package middleware
