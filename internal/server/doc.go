// Package server hosts the Clipstream HTTP API.
//
// The server builds a consistent middleware chain of request IDs, logging,
// security headers, CORS, audit, metrics, rate limiting, and session
// resolution so handlers all share common protections and instrumentation.
package server
