package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	// Timeout bounds the request context. Zero or negative disables it.
	Timeout time.Duration

	Logger observability.Logger

	// ErrorHandler writes the response when the deadline passes before
	// anything was written. Defaults to DefaultErrorHandler.
	ErrorHandler ErrorHandler
}

// Timeout returns a middleware that bounds the request context by timeout.
func Timeout(timeout time.Duration, logger observability.Logger) gin.HandlerFunc {
	return TimeoutWithConfig(TimeoutConfig{Timeout: timeout, Logger: logger})
}

// TimeoutWithConfig returns a timeout middleware with custom configuration.
// Handlers observe the deadline through the request context; the middleware
// does not preempt them.
func TimeoutWithConfig(cfg TimeoutConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	return func(c *gin.Context) {
		if cfg.Timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}

		cfg.Logger.WithContext(ctx).Warn("request timeout",
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.String("route", GetRoute(c)),
			observability.Duration("timeout", cfg.Timeout),
		)
		if !c.Writer.Written() {
			cfg.ErrorHandler(c, util.StatusCode(util.ErrTimeout), util.ErrTimeout)
		}
	}
}
