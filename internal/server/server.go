package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avarest/internal/config"
	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/health"
	"github.com/vyrodovalexey/avarest/internal/middleware"
	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/router"
)

// Server defaults.
const (
	DefaultMaxBodyBytes   = 10 << 20
	DefaultMaxHeaderBytes = 1 << 20
	HealthPath            = "/health"
	ReadyPath             = "/ready"
)

// ginModeOnce ensures gin.SetMode is only called once.
var ginModeOnce sync.Once

// Server serves a REST service description over HTTP. Requests that hit no
// infrastructure endpoint are dispatched through the current router.
type Server struct {
	settings     config.ServerSettings
	engine       *gin.Engine
	httpServer   *http.Server
	router       atomic.Pointer[router.Router]
	conversions  *conversion.Service
	logger       observability.Logger
	metrics      *observability.Metrics
	metricsPath  string
	tracer       *observability.Tracer
	rateLimiter  *middleware.RateLimiter
	maxBodyBytes int64
	version      string
	health       *health.Checker
	listenAddr   atomic.Value
	mu           sync.Mutex
	running      bool
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request metrics and serves them on path.
func WithMetrics(m *observability.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// WithTracer starts a server span for every REST request.
func WithTracer(tracer *observability.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithRateLimiter installs a rate limiter in front of the REST handler.
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}

// WithMaxBodyBytes limits the size of request entities. Zero disables the
// limit.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a server dispatching through r. r may be nil until the first
// SwapRouter; the server reports not ready until then.
func New(
	settings config.ServerSettings,
	conversions *conversion.Service,
	r *router.Router,
	opts ...Option,
) *Server {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		settings:     settings,
		conversions:  conversions,
		logger:       observability.NopLogger(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if r != nil {
		s.router.Store(r)
	}

	s.health = health.NewChecker(s.version)
	s.health.RegisterCheck("router", s.checkRouter)
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = false

	skip := []string{HealthPath, ReadyPath}
	if s.metrics != nil && s.metricsPath != "" {
		skip = append(skip, s.metricsPath)
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.LoggingWithConfig(middleware.LoggingConfig{
		Logger:          s.logger,
		SkipPaths:       skip,
		SkipHealthCheck: true,
	}))
	engine.Use(middleware.RecoveryWithConfig(middleware.RecoveryConfig{
		Logger:           s.logger,
		EnableStackTrace: true,
		ErrorHandler:     s.writeError,
	}))
	if s.tracer != nil {
		engine.Use(middleware.Tracing(s.tracer, skip...))
	}
	if s.metrics != nil {
		engine.Use(middleware.Metrics(s.metrics, skip...))
	}

	engine.GET(HealthPath, s.health.HealthHandler())
	engine.GET(ReadyPath, s.health.ReadinessHandler())
	if s.metrics != nil && s.metricsPath != "" {
		engine.GET(s.metricsPath, gin.WrapH(s.metrics.Handler()))
	}

	rest := []gin.HandlerFunc{}
	if s.rateLimiter != nil {
		rest = append(rest, s.rateLimiter.MiddlewareWithHandler(s.writeError))
	}
	if timeout := s.settings.HandlerTimeout.Duration(); timeout > 0 {
		rest = append(rest, middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      timeout,
			Logger:       s.logger,
			ErrorHandler: s.writeError,
		}))
	}
	rest = append(rest, s.handleREST)
	engine.NoRoute(rest...)

	return engine
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Health returns the checker behind the health and readiness endpoints.
// Additional readiness checks may be registered on it.
func (s *Server) Health() *health.Checker {
	return s.health
}

// Router returns the router currently dispatching requests.
func (s *Server) Router() *router.Router {
	return s.router.Load()
}

// SwapRouter installs r for new requests and returns the previous router.
// In-flight requests finish on the router they started with.
func (s *Server) SwapRouter(r *router.Router) *router.Router {
	old := s.router.Swap(r)
	s.logger.Info("router installed",
		observability.Int("methods", len(r.Methods())),
	)
	return old
}

// Ready reports whether a started router is installed.
func (s *Server) Ready() bool {
	r := s.router.Load()
	return r != nil && r.IsStarted()
}

// Addr returns the address the listener is bound to, or "" before Start.
func (s *Server) Addr() string {
	if addr, ok := s.listenAddr.Load().(string); ok {
		return addr
	}
	return ""
}

// Start listens on the configured address and serves until Shutdown. It
// returns nil after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	addr := s.settings.Address()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadTimeout:       s.settings.ReadTimeout.Duration(),
		ReadHeaderTimeout: s.settings.ReadTimeout.Duration(),
		WriteTimeout:      s.settings.WriteTimeout.Duration(),
		IdleTimeout:       s.settings.IdleTimeout.Duration(),
		MaxHeaderBytes:    DefaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.listenAddr.Store(ln.Addr().String())
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting REST server",
		observability.String("name", s.settings.Name),
		observability.String("address", ln.Addr().String()),
		observability.Duration("read_timeout", s.settings.ReadTimeout.Duration()),
		observability.Duration("write_timeout", s.settings.WriteTimeout.Duration()),
	)

	err = srv.Serve(ln)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	running := s.running
	s.mu.Unlock()

	if !running || srv == nil {
		return nil
	}

	s.logger.Info("stopping REST server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("REST server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) checkRouter() health.Check {
	r := s.router.Load()
	switch {
	case r == nil:
		return health.Check{Status: health.StatusUnhealthy, Message: "no router installed"}
	case !r.IsStarted():
		return health.Check{Status: health.StatusUnhealthy, Message: "router stopped"}
	}
	return health.Check{
		Status:  health.StatusHealthy,
		Message: fmt.Sprintf("%d methods", len(r.Methods())),
	}
}
