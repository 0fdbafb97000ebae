package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/avarest/internal/observability"
)

// middlewareMetrics holds process-wide counters of the middleware chain.
type middlewareMetrics struct {
	panicsRecovered   prometheus.Counter
	rateLimitRejected *prometheus.CounterVec
}

var (
	middlewareMetricsInstance *middlewareMetrics
	middlewareMetricsOnce     sync.Once
)

func getMiddlewareMetrics() *middlewareMetrics {
	middlewareMetricsOnce.Do(func() {
		middlewareMetricsInstance = &middlewareMetrics{
			panicsRecovered: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "middleware",
					Name:      "panics_recovered_total",
					Help:      "Total number of handler panics recovered",
				},
			),
			rateLimitRejected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "middleware",
					Name:      "rate_limit_rejected_total",
					Help:      "Total number of requests rejected by the rate limiter",
				},
				[]string{"scope"},
			),
		}
	})
	return middlewareMetricsInstance
}

// Metrics returns a middleware that records request metrics labelled by
// the matched service method.
func Metrics(m *observability.Metrics, skipPaths ...string) gin.HandlerFunc {
	skip := pathSet(skipPaths)

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		m.IncrementActiveRequests()
		defer m.DecrementActiveRequests()

		c.Next()

		m.RecordRequest(
			c.Request.Method,
			GetRoute(c),
			c.Writer.Status(),
			time.Since(start),
			max(c.Request.ContentLength, 0),
			int64(max(c.Writer.Size(), 0)),
		)
	}
}
