package conversion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// conversionMetrics contains Prometheus metrics for negotiation and entity
// conversion.
type conversionMetrics struct {
	negotiationsTotal *prometheus.CounterVec
	encodeTotal       *prometheus.CounterVec
	decodeTotal       *prometheus.CounterVec
	argumentFailures  prometheus.Counter
}

var (
	conversionMetricsInstance *conversionMetrics
	conversionMetricsOnce     sync.Once
)

// getConversionMetrics returns the singleton conversion metrics instance.
func getConversionMetrics() *conversionMetrics {
	conversionMetricsOnce.Do(func() {
		conversionMetricsInstance = &conversionMetrics{
			negotiationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "conversion",
					Name:      "negotiations_total",
					Help:      "Total number of content negotiations by direction and result",
				},
				[]string{"direction", "result"},
			),
			encodeTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "conversion",
					Name:      "encode_total",
					Help:      "Total number of response entity encodings",
				},
				[]string{"media_type", "result"},
			),
			decodeTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "conversion",
					Name:      "decode_total",
					Help:      "Total number of request entity decodings",
				},
				[]string{"media_type", "result"},
			),
			argumentFailures: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avarest",
					Subsystem: "conversion",
					Name:      "argument_failures_total",
					Help:      "Total number of request arguments that failed type conversion",
				},
			),
		}
	})
	return conversionMetricsInstance
}

func (m *conversionMetrics) recordNegotiation(direction, result string) {
	m.negotiationsTotal.WithLabelValues(direction, result).Inc()
}

func (m *conversionMetrics) recordEncode(mediaType, result string) {
	m.encodeTotal.WithLabelValues(mediaType, result).Inc()
}

func (m *conversionMetrics) recordDecode(mediaType, result string) {
	m.decodeTotal.WithLabelValues(mediaType, result).Inc()
}

func (m *conversionMetrics) recordArgumentFailures(n int) {
	m.argumentFailures.Add(float64(n))
}
