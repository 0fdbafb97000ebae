package router

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// Router is the route registry and dispatcher. Routes are registered while
// the router is stopped; once started, the registry is frozen and Dispatch
// may be called from any number of goroutines without locking.
type Router struct {
	mu       sync.Mutex
	routes   []*Route
	index    atomic.Pointer[routeIndex]
	started  atomic.Bool
	resolver HandlerResolver
	logger   observability.Logger
	metrics  *routerMetrics
}

// routeIndex is an immutable snapshot of the registry. buckets[n] holds the
// routes for requests of n segments in priority order; tail serves every
// segment count beyond the last bucket and holds only trailing regex routes.
type routeIndex struct {
	buckets [][]*Route
	tail    []*Route
}

// Match is the result of a successful dispatch.
type Match struct {
	Route     *Route
	Arguments map[string]string
}

// Option is a functional option for configuring the Router.
type Option func(*Router)

// WithLogger sets the logger for the router.
func WithLogger(logger observability.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithResolver sets the resolver used to bind method targets to handlers at
// registration time.
func WithResolver(resolver HandlerResolver) Option {
	return func(r *Router) {
		r.resolver = resolver
	}
}

// New creates a new stopped router.
func New(opts ...Option) *Router {
	r := &Router{
		logger:  observability.NopLogger(),
		metrics: getRouterMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.index.Store(&routeIndex{})
	return r
}

// Start freezes the registry and enables dispatch.
func (r *Router) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started.CompareAndSwap(false, true) {
		r.logger.Info("router started", observability.Int("routes", len(r.routes)))
	}
}

// Stop disables the mutation guard so the registry can be changed again.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started.CompareAndSwap(true, false) {
		r.logger.Info("router stopped")
	}
}

// IsStarted reports whether the router is dispatching.
func (r *Router) IsStarted() bool {
	return r.started.Load()
}

// Register adds a method to the registry.
func (r *Router) Register(m *service.Method) error {
	return r.RegisterAll([]*service.Method{m})
}

// RegisterAll adds methods in order. Either all methods are registered or,
// on error, none is.
func (r *Router) RegisterAll(methods []*service.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkMutable("register"); err != nil {
		return err
	}

	added := make([]*Route, 0, len(methods))
	for _, m := range methods {
		if m == nil {
			return util.NewConfigurationError("", "cannot register a nil method")
		}
		var h Handler
		if r.resolver != nil {
			var err error
			if h, err = r.resolver.Resolve(m.Target()); err != nil {
				return util.NewConfigurationErrorWithCause(m.Name(), "cannot resolve handler", err)
			}
		}
		added = append(added, newRoute(m, h))
	}

	for _, route := range added {
		r.logger.Debug("route registered",
			observability.String("method", route.method.Name()),
			observability.String("signature", route.method.String()),
		)
	}

	r.routes = append(r.routes, added...)
	r.rebuild()
	return nil
}

// Unregister removes the first registration of m. Removing an unknown
// method is a no-op.
func (r *Router) Unregister(m *service.Method) error {
	return r.UnregisterAll([]*service.Method{m})
}

// UnregisterAll removes each of the given methods.
func (r *Router) UnregisterAll(methods []*service.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkMutable("unregister"); err != nil {
		return err
	}

	routes := slices.Clone(r.routes)
	for _, m := range methods {
		if i := slices.IndexFunc(routes, func(route *Route) bool { return route.method == m }); i != -1 {
			routes = slices.Delete(routes, i, i+1)
		}
	}

	r.routes = routes
	r.rebuild()
	return nil
}

// Clear removes all methods.
func (r *Router) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkMutable("clear"); err != nil {
		return err
	}

	r.routes = nil
	r.rebuild()
	return nil
}

// Methods returns the registered methods in registration order.
func (r *Router) Methods() []*service.Method {
	r.mu.Lock()
	defer r.mu.Unlock()

	methods := make([]*service.Method, len(r.routes))
	for i, route := range r.routes {
		methods[i] = route.method
	}
	return methods
}

// Routes returns the routes tried, in order, for a request of n path
// segments. The returned slice must not be modified.
func (r *Router) Routes(n int) []*Route {
	return r.index.Load().routesFor(n)
}

func (idx *routeIndex) routesFor(n int) []*Route {
	if n < 0 {
		return nil
	}
	if n < len(idx.buckets) {
		return idx.buckets[n]
	}
	return idx.tail
}

func (r *Router) checkMutable(op string) error {
	if r.started.Load() {
		return util.NewConfigurationError("router", "cannot "+op+" methods while the router is started")
	}
	return nil
}

// rebuild replays all registrations into a fresh index. Must be called with
// r.mu held.
func (r *Router) rebuild() {
	size := 0
	for _, route := range r.routes {
		n := route.method.SegmentCount()
		if k, ok := route.method.TrailingRegex(); ok {
			n = k + 1
		}
		size = max(size, n+1)
	}

	idx := &routeIndex{buckets: make([][]*Route, size)}
	for _, route := range r.routes {
		if k, ok := route.method.TrailingRegex(); ok {
			for n := k + 1; n < size; n++ {
				idx.buckets[n] = insertRoute(idx.buckets[n], route)
			}
			idx.tail = insertRoute(idx.tail, route)
			continue
		}
		n := route.method.SegmentCount()
		idx.buckets[n] = insertRoute(idx.buckets[n], route)
	}

	r.index.Store(idx)
	r.metrics.routes.Set(float64(len(r.routes)))
}

// insertRoute inserts route before the first entry it outranks. Ties keep
// registration order.
func insertRoute(bucket []*Route, route *Route) []*Route {
	for i, existing := range bucket {
		if compareRoutes(route, existing) > 0 {
			return slices.Insert(bucket, i, route)
		}
	}
	return append(bucket, route)
}

// Dispatch decodes a raw request target and returns the first route that
// matches it. rawPath is the escaped path, rawMatrix the escaped matrix
// parameters of the last segment without the leading ';' and rawQuery the
// escaped query string.
//
// Errors: *util.DecodingError for malformed escapes or invalid UTF-8,
// *util.MethodNotAllowedError when routes match the path only for other
// verbs and *util.RouteNotFoundError otherwise.
func (r *Router) Dispatch(verb, rawPath, rawMatrix, rawQuery string) (*Match, error) {
	segments, err := DecodePath(rawPath)
	if err != nil {
		r.metrics.dispatches.WithLabelValues(resultBadRequest).Inc()
		return nil, err
	}
	matrix, err := DecodeParams(rawMatrix, ';')
	if err != nil {
		r.metrics.dispatches.WithLabelValues(resultBadRequest).Inc()
		return nil, err
	}
	query, err := DecodeParams(rawQuery, '&')
	if err != nil {
		r.metrics.dispatches.WithLabelValues(resultBadRequest).Inc()
		return nil, err
	}

	candidates := r.Routes(len(segments))
	for _, route := range candidates {
		if args, ok := route.Match(verb, segments, matrix, query); ok {
			r.metrics.dispatches.WithLabelValues(resultMatched).Inc()
			return &Match{Route: route, Arguments: args}, nil
		}
	}

	if allowed := allowedVerbs(candidates, segments, matrix, query); len(allowed) > 0 {
		r.metrics.dispatches.WithLabelValues(resultMethodNotAllowed).Inc()
		return nil, util.NewMethodNotAllowedError(verb, rawPath, allowed)
	}

	r.metrics.dispatches.WithLabelValues(resultNotFound).Inc()
	return nil, util.NewRouteNotFoundError(verb, rawPath)
}

// DispatchTarget splits a raw request target into path, matrix and query
// and dispatches it.
func (r *Router) DispatchTarget(verb, rawTarget string) (*Match, error) {
	t := ParseTarget(rawTarget)
	return r.Dispatch(verb, t.Path, t.Matrix, t.Query)
}

// allowedVerbs returns the sorted set of actions of routes whose shape
// matches the request.
func allowedVerbs(candidates []*Route, segments []string, matrix, query map[string]string) []string {
	seen := make(map[string]bool)
	for _, route := range candidates {
		if _, ok := route.matchShape(segments, matrix, query); ok {
			seen[route.method.Action()] = true
		}
	}

	allowed := make([]string, 0, len(seen))
	for verb := range seen {
		allowed = append(allowed, verb)
	}
	sort.Strings(allowed)
	return allowed
}
