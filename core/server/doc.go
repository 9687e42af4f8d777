// Package server holds the HTTP server configuration of the read API.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key protecting every route, and how
// long catalog reads may be served from the in-memory cache.
//
// # Usage
//
// This package is embedded by core/config and consumed by the serve command.
package server
