package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTP header constants.
const (
	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"
)

// gin context keys.
const (
	// RequestIDKey holds the request ID.
	RequestIDKey = "avarest.requestID"

	// RouteKey holds the name of the matched service method.
	RouteKey = "avarest.route"
)

// ErrorHandler writes an error response and aborts the chain.
type ErrorHandler func(c *gin.Context, status int, err error)

// DefaultErrorHandler writes the error as a plain text body.
func DefaultErrorHandler(c *gin.Context, status int, err error) {
	c.Header(HeaderContentType, "text/plain; charset=utf-8")
	c.AbortWithStatus(status)
	_, _ = fmt.Fprintf(c.Writer, "%d %s\n\n%s\n", status, http.StatusText(status), err)
}

// GetRequestID returns the request ID stored by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// SetRoute records the matched service method name.
func SetRoute(c *gin.Context, name string) {
	c.Set(RouteKey, name)
}

// GetRoute returns the matched service method name, or "".
func GetRoute(c *gin.Context) string {
	return c.GetString(RouteKey)
}

// isHealthCheckPath checks if the path is a health check endpoint.
func isHealthCheckPath(path string) bool {
	return path == "/health" || path == "/healthz" || path == "/ready" || path == "/readyz"
}

func pathSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}
