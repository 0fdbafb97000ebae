package main

import (
	"context"

	"github.com/vyrodovalexey/avarest/internal/config"
	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/middleware"
	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/router"
	"github.com/vyrodovalexey/avarest/internal/server"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "avarest"

// application holds all application components.
type application struct {
	config      *config.ServerConfig
	server      *server.Server
	reloader    *server.Reloader
	watcher     *config.Watcher
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	rateLimiter *middleware.RateLimiter
}

// initApplication initializes all application components and installs the
// initial router.
func initApplication(
	cfg *config.ServerConfig,
	handlers router.HandlerResolver,
	logger observability.Logger,
) *application {
	app := &application{config: cfg}

	opts := []server.Option{server.WithLogger(logger), server.WithVersion(version)}

	if cfg.MetricsEnabled() {
		app.metrics = observability.NewMetrics(metricsNamespace)
		app.metrics.SetBuildInfo(version, gitCommit, buildTime)
		opts = append(opts, server.WithMetrics(app.metrics, cfg.Observability.Metrics.Path))
	}

	app.tracer = initTracer(cfg, logger)
	if cfg.TracingEnabled() {
		opts = append(opts, server.WithTracer(app.tracer))
	}

	rlOpts := []middleware.RateLimiterOption{middleware.WithRateLimiterLogger(logger)}
	if app.metrics != nil {
		rlOpts = append(rlOpts, middleware.WithRateLimiterMetrics(app.metrics))
	}
	if rl := middleware.NewRateLimiterFromConfig(cfg.RateLimit, rlOpts...); rl != nil {
		app.rateLimiter = rl
		opts = append(opts, server.WithRateLimiter(rl))
	}

	conversions := conversion.NewDefaultService(
		conversion.WithLogger(logger),
		conversion.WithQualityOrdering(cfg.Negotiation.SortByQuality),
		conversion.WithDefaultCharset(cfg.Negotiation.DefaultCharset),
	)

	app.server = server.New(cfg.Server, conversions, nil, opts...)

	reloaderOpts := []server.ReloaderOption{server.WithReloaderLogger(logger)}
	if app.metrics != nil {
		reloaderOpts = append(reloaderOpts, server.WithReloaderMetrics(app.metrics))
	}
	app.reloader = server.NewReloader(app.server, cfg.Service.Document, handlers, reloaderOpts...)

	if err := app.reloader.Reload(); err != nil {
		fatalWithSync(logger, "failed to load service description", observability.Error(err))
		return nil // unreachable in production; allows test to continue
	}

	return app
}

// initTracer initializes the tracer. A disabled configuration yields a
// tracer backed by the global no-op provider.
func initTracer(cfg *config.ServerConfig, logger observability.Logger) *observability.Tracer {
	tracerCfg := observability.TracerConfig{
		ServiceName:  cfg.Server.Name,
		SamplingRate: 1.0,
	}
	if t := cfg.Observability.Tracing; t != nil && t.Enabled {
		tracerCfg.Enabled = true
		tracerCfg.ServiceName = t.ServiceName
		tracerCfg.OTLPEndpoint = t.OTLPEndpoint
		tracerCfg.SamplingRate = t.SamplingRate
	}

	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		logger.Warn("failed to initialize tracer, tracing disabled", observability.Error(err))
		tracer, _ = observability.NewTracer(observability.TracerConfig{ServiceName: tracerCfg.ServiceName})
		return tracer
	}

	if tracerCfg.Enabled {
		logger.Info("tracing enabled",
			observability.String("service_name", tracerCfg.ServiceName),
			observability.String("otlp_endpoint", tracerCfg.OTLPEndpoint),
			observability.Float64("sampling_rate", tracerCfg.SamplingRate),
		)
	}
	return tracer
}

// startDocumentWatcher reloads the service description whenever it
// changes. It returns nil when watching is disabled or fails to start.
func startDocumentWatcher(ctx context.Context, app *application, logger observability.Logger) *config.Watcher {
	if !app.config.Service.Watch {
		return nil
	}

	watcher, err := config.NewWatcher(
		[]string{app.reloader.Document()},
		app.reloader.OnChange,
		config.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("failed to create service description watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("failed to start service description watcher", observability.Error(err))
		return nil
	}
	return watcher
}
