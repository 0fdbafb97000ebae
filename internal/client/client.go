package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/service"
)

// DefaultTimeout is the timeout of the default HTTP client.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps the size of a decoded response body.
const maxResponseBytes = 10 << 20

var errorEntity = service.EntityType{Name: conversion.ErrorEntity}

// Response is a decoded response.
type Response struct {
	Status    int
	Header    http.Header
	MediaType conversion.MediaType
	// Entity is the decoded body, or nil when the method declares no
	// response type or the body is empty.
	Entity any
}

// Client sends requests for service methods to one base URL.
type Client struct {
	baseURL     *url.URL
	conversions *conversion.Service
	httpClient  *http.Client
	logger      observability.Logger
	header      http.Header
}

// Option is a functional option for the client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.header.Add(name, value)
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, conversions *conversion.Service, opts ...Option) (*Client, error) {
	if conversions == nil {
		return nil, fmt.Errorf("conversion service is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		baseURL:     u,
		conversions: conversions,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      observability.NopLogger(),
		header:      make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the absolute URL addressing m with args.
func (c *Client) URL(m *service.Method, args map[string]string) (string, error) {
	uri, err := service.BuildURI(m, args)
	if err != nil {
		return "", err
	}
	return c.baseURL.String() + uri, nil
}

// Call invokes m. The entity is encoded in the server's preferred media type
// of the method's request type; it is ignored for methods without one. The
// Accept header lists every media type supported for the response type.
func (c *Client) Call(ctx context.Context, m *service.Method, args map[string]string, entity any) (*Response, error) {
	target, err := c.URL(m, args)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	var contentType string
	if rtype := m.RequestType(); rtype != nil && entity != nil {
		mt, data, err := c.conversions.WriteEntity([]conversion.MediaType{conversion.AnyMediaType()}, *rtype, entity)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s entity: %w", rtype, err)
		}
		body = bytes.NewReader(data)
		contentType = mt.String()
	}

	req, err := http.NewRequestWithContext(ctx, m.Action(), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range c.header {
		req.Header[name] = append([]string(nil), values...)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", c.accept(m))
	observability.InjectTraceContext(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", m.Action(), target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("REST call completed",
		observability.String("method", m.Name()),
		observability.String("url", target),
		observability.Int("status", resp.StatusCode),
		observability.Duration("duration", time.Since(start)),
	)

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusError(req, resp.StatusCode, ct, data)
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header}
	rtype := m.ResponseType()
	if rtype == nil || len(data) == 0 {
		return out, nil
	}

	mt, err := conversion.ParseMediaType(ct)
	if err != nil {
		return nil, fmt.Errorf("invalid response content type %q: %w", ct, err)
	}
	v, err := c.conversions.ReadEntity(ct, *rtype, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s entity: %w", rtype, err)
	}
	out.MediaType = mt
	out.Entity = v
	return out, nil
}

// accept lists the response types the client can decode, falling back to
// any type for methods without a response entity.
func (c *Client) accept(m *service.Method) string {
	rtype := m.ResponseType()
	if rtype == nil {
		return conversion.AnyMediaType().String()
	}
	types := c.conversions.SupportedMediaTypes(*rtype)
	if len(types) == 0 {
		return conversion.AnyMediaType().String()
	}
	parts := make([]string, 0, len(types))
	for _, mt := range types {
		parts = append(parts, mt.Essence())
	}
	return strings.Join(parts, ", ")
}

func (c *Client) statusError(req *http.Request, status int, contentType string, data []byte) *StatusError {
	serr := &StatusError{
		Method: req.Method,
		URI:    req.URL.RequestURI(),
		Body:   conversion.ErrorBody{Status: status, Reason: http.StatusText(status)},
	}
	if len(data) == 0 {
		return serr
	}

	v, err := c.conversions.ReadEntity(contentType, errorEntity, data)
	if body, ok := v.(conversion.ErrorBody); err == nil && ok {
		body.Status = status
		serr.Body = body
		return serr
	}
	serr.Body.Message = strings.TrimSpace(string(data))
	return serr
}
