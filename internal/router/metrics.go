package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch result label values.
const (
	resultMatched          = "matched"
	resultNotFound         = "not_found"
	resultMethodNotAllowed = "method_not_allowed"
	resultBadRequest       = "bad_request"
)

// routerMetrics contains Prometheus metrics for route registration and dispatch.
type routerMetrics struct {
	dispatches *prometheus.CounterVec
	routes     prometheus.Gauge
}

var (
	routerMetricsInstance *routerMetrics
	routerMetricsOnce     sync.Once
)

// getRouterMetrics returns the singleton router metrics instance.
func getRouterMetrics() *routerMetrics {
	routerMetricsOnce.Do(func() {
		routerMetricsInstance = &routerMetrics{
			dispatches: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "router",
					Name:      "dispatches_total",
					Help:      "Total number of dispatched requests by result",
				},
				[]string{"result"},
			),
			routes: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "avarest",
					Subsystem: "router",
					Name:      "registered_routes",
					Help:      "Number of methods registered in the most recently changed router",
				},
			),
		}
	})
	return routerMetricsInstance
}
