// Package util provides utility functions and types for the
// REST server.
//
// This package contains shared utilities used across the server
// including context helpers, error types, HTTP utilities, and
// validation functions.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithRequestID(ctx, "req-123")
//	requestID := util.RequestIDFromContext(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - DecodingError: malformed percent-encoding in a request target (400)
//   - RouteNotFoundError: no registered route matches (404)
//   - MethodNotAllowedError: the path matches only for other verbs (405)
//   - NegotiationError: no acceptable representation (406 or 415)
//   - ArgumentError: an argument cannot be converted to its type (400)
//   - ConfigurationError: invalid registry or service description use
//
// StatusCode maps any of them, possibly wrapped, to an HTTP status.
//
// # HTTP Utilities
//
// Response writer wrappers for status code capture:
//
//	w := util.NewStatusCapturingResponseWriter(responseWriter)
//	handler.ServeHTTP(w, r)
//	statusCode := w.StatusCode
//
// # Validation
//
// Input validation helpers for ports, verbs, and media types:
//
//	err := util.ValidatePort(8080)
//	err := util.ValidateMediaType("text/plain; charset=utf-8")
package util
