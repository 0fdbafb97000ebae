// Package observability provides logging, metrics, and tracing
// functionality for the REST server.
//
// Structured logging is built on zap, metrics are exposed through a
// dedicated Prometheus registry, and tracing uses OpenTelemetry with an
// optional OTLP gRPC exporter.
//
// # Logging
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("request served",
//	    observability.String("method", "GET"),
//	    observability.Int("status", 200),
//	)
//
// # Metrics
//
//	metrics := observability.NewMetrics("avarest")
//	mux.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
//	tracer, err := observability.NewTracer(observability.TracerConfig{
//	    ServiceName:  "avarest",
//	    OTLPEndpoint: "localhost:4317",
//	    SamplingRate: 1.0,
//	    Enabled:      true,
//	})
//	defer tracer.Shutdown(ctx)
package observability
