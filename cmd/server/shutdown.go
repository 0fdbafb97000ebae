package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avarest/internal/config"
	"github.com/vyrodovalexey/avarest/internal/observability"
)

// runServer serves until a shutdown signal arrives or the listener fails.
func runServer(app *application, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	serve(app, sigCh, logger)
}

// serve runs the server and blocks until stop delivers a signal or Start
// returns.
func serve(app *application, stop <-chan os.Signal, logger observability.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.watcher = startDocumentWatcher(ctx, app, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(ctx)
	}()

	select {
	case sig := <-stop:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
		shutdown(app, app.watcher, logger)
		if err := <-errCh; err != nil {
			logger.Error("server stopped with error", observability.Error(err))
		}
	case err := <-errCh:
		shutdown(app, app.watcher, logger)
		if err != nil {
			fatalWithSync(logger, "failed to run server", observability.Error(err))
			return
		}
	}

	logger.Info("avarest stopped")
}

// shutdown stops every component, draining in-flight requests first.
func shutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	timeout := app.config.Server.ShutdownTimeout.OrDefault(config.DefaultShutdownTimeout).Duration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop service description watcher", observability.Error(err))
		}
	}

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if r := app.server.Router(); r != nil {
		r.Stop()
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}
}
