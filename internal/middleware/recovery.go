package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/vyrodovalexey/avarest/internal/observability"
)

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	Logger           observability.Logger
	EnableStackTrace bool
	ErrorHandler     ErrorHandler
}

// Recovery returns a middleware that recovers from panics.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	return RecoveryWithConfig(RecoveryConfig{
		Logger:           logger,
		EnableStackTrace: true,
	})
}

// RecoveryWithConfig returns a recovery middleware with custom configuration.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = DefaultErrorHandler
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			fields := []observability.Field{
				observability.Any("error", rec),
				observability.String("method", c.Request.Method),
				observability.String("path", c.Request.URL.Path),
				observability.String("route", GetRoute(c)),
			}
			if config.EnableStackTrace {
				fields = append(fields, observability.String("stack", string(debug.Stack())))
			}
			config.Logger.WithContext(c.Request.Context()).Error("panic recovered", fields...)

			getMiddlewareMetrics().panicsRecovered.Inc()

			err := fmt.Errorf("panic: %v", rec)
			span := observability.SpanFromContext(c.Request.Context())
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			config.ErrorHandler(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		}()

		c.Next()
	}
}
