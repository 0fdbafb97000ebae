// Package middleware provides the gin middleware chain of the REST server.
//
// The chain, outermost first:
//
//	RequestID  assigns X-Request-ID and stores it in the request context
//	Logging    writes one access log entry per request
//	Recovery   turns handler panics into 500 responses
//	Tracing    starts an OpenTelemetry server span
//	Metrics    records request count, latency and sizes
//	RateLimit  rejects requests over the configured rate with 429
//
// Handlers further down the chain publish the matched service method with
// SetRoute so that logs, spans and metrics are labelled by method name
// rather than by raw path.
package middleware
