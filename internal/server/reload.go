package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/router"
	"github.com/vyrodovalexey/avarest/internal/service"
)

// Reloader builds routers from a service description file and installs them
// on a Server.
type Reloader struct {
	server   *Server
	document string
	resolver router.HandlerResolver
	logger   observability.Logger
	metrics  *observability.Metrics
	mu       sync.Mutex
}

// ReloaderOption is a functional option for configuring the Reloader.
type ReloaderOption func(*Reloader)

// WithReloaderLogger sets the logger for the reloader.
func WithReloaderLogger(logger observability.Logger) ReloaderOption {
	return func(rl *Reloader) {
		rl.logger = logger
	}
}

// WithReloaderMetrics records the outcome of every reload.
func WithReloaderMetrics(m *observability.Metrics) ReloaderOption {
	return func(rl *Reloader) {
		rl.metrics = m
	}
}

// NewReloader creates a reloader for the description at document. Method
// targets are bound through resolver.
func NewReloader(s *Server, document string, resolver router.HandlerResolver, opts ...ReloaderOption) *Reloader {
	rl := &Reloader{
		server:   s,
		document: document,
		resolver: resolver,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Document returns the path of the service description.
func (rl *Reloader) Document() string {
	return rl.document
}

// Reload parses the description, builds and starts a new router and swaps
// it in. On error the installed router keeps serving.
func (rl *Reloader) Reload() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	start := time.Now()
	r, err := rl.build()
	if rl.metrics != nil {
		rl.metrics.RecordReload(err == nil)
	}
	if err != nil {
		rl.logger.Error("failed to load service description",
			observability.String("document", rl.document),
			observability.Error(err),
		)
		return err
	}

	if old := rl.server.SwapRouter(r); old != nil {
		old.Stop()
	}

	rl.logger.Info("service description loaded",
		observability.String("document", rl.document),
		observability.Int("methods", len(r.Methods())),
		observability.Duration("duration", time.Since(start)),
	)
	return nil
}

// OnChange reloads the description. Its signature matches
// config.ChangeCallback.
func (rl *Reloader) OnChange(changed []string) error {
	rl.logger.Info("service description changed, reloading",
		observability.Strings("files", changed),
	)
	return rl.Reload()
}

func (rl *Reloader) build() (*router.Router, error) {
	groups, err := service.LoadDocument(rl.document)
	if err != nil {
		return nil, err
	}

	opts := []router.Option{router.WithLogger(rl.logger)}
	if rl.resolver != nil {
		opts = append(opts, router.WithResolver(rl.resolver))
	}
	r := router.New(opts...)
	if err := r.RegisterAll(service.Methods(groups)); err != nil {
		return nil, fmt.Errorf("failed to register methods: %w", err)
	}
	r.Start()
	return r, nil
}
