package router

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// Request is the routed request handed to a Handler.
type Request struct {
	// Method is the matched method descriptor.
	Method *service.Method
	// Arguments holds the raw bound argument values.
	Arguments map[string]string
	// Values holds the typed argument values, keyed like Arguments.
	Values map[string]any
	// Header is the inbound header.
	Header http.Header
	// Entity is the decoded request body, or nil.
	Entity any
}

// Argument returns the raw value bound to name.
func (r *Request) Argument(name string) string {
	return r.Arguments[name]
}

// Value returns the typed value bound to name, or nil.
func (r *Request) Value(name string) any {
	return r.Values[name]
}

// Response collects the outcome of a Handler.
type Response struct {
	// Status overrides the default status when non-zero.
	Status int
	// Header is merged into the outbound header.
	Header http.Header
	// Entity is the response body, encoded with the negotiated converter.
	Entity any
}

// NewResponse creates an empty Response.
func NewResponse() *Response {
	return &Response{Header: make(http.Header)}
}

// Handler serves the requests routed to a method.
type Handler interface {
	ServeREST(ctx context.Context, req *Request, resp *Response) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request, resp *Response) error

// ServeREST calls f(ctx, req, resp).
func (f HandlerFunc) ServeREST(ctx context.Context, req *Request, resp *Response) error {
	return f(ctx, req, resp)
}

// HandlerResolver resolves a method target to a Handler.
type HandlerResolver interface {
	Resolve(target string) (Handler, error)
}

// Handlers is a named registry of Handler instances. It is safe for
// concurrent use.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlers creates an empty handler registry.
func NewHandlers() *Handlers {
	return &Handlers{handlers: make(map[string]Handler)}
}

// Register binds a handler to a target name.
func (h *Handlers) Register(target string, handler Handler) error {
	if target == "" {
		return util.NewConfigurationError("target", "target name must not be empty")
	}
	if handler == nil {
		return util.NewConfigurationError(target, "handler must not be nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.handlers[target]; exists {
		return util.NewConfigurationError(target, "handler already registered")
	}
	h.handlers[target] = handler
	return nil
}

// RegisterFunc binds a function to a target name.
func (h *Handlers) RegisterFunc(target string, fn func(ctx context.Context, req *Request, resp *Response) error) error {
	return h.Register(target, HandlerFunc(fn))
}

// Resolve returns the handler registered for target.
func (h *Handlers) Resolve(target string) (Handler, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	handler, ok := h.handlers[target]
	if !ok {
		return nil, util.NewConfigurationError(target, fmt.Sprintf("no handler registered for target %q", target))
	}
	return handler, nil
}

// Targets returns the registered target names in sorted order.
func (h *Handlers) Targets() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	return targets
}
