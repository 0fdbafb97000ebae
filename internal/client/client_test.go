package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avarest/internal/config"
	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/router"
	"github.com/vyrodovalexey/avarest/internal/server"
	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

const testDocument = "testdata/service.yaml"

type library struct {
	mu    sync.Mutex
	books map[string]map[string]any
}

func (l *library) handlers(t *testing.T) *router.Handlers {
	t.Helper()

	h := router.NewHandlers()
	require.NoError(t, h.RegisterFunc("GetBook", func(_ context.Context, req *router.Request, resp *router.Response) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		book, ok := l.books[req.Argument("isbn")]
		if !ok {
			return fmt.Errorf("%w: book %s", util.ErrNotFound, req.Argument("isbn"))
		}
		resp.Entity = book
		return nil
	}))
	require.NoError(t, h.RegisterFunc("SearchBooks", func(_ context.Context, req *router.Request, resp *router.Response) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		var found []any
		for _, book := range l.books {
			if book["author"] == req.Argument("author") {
				found = append(found, book["title"])
			}
		}
		resp.Header.Set("X-Limit", fmt.Sprint(req.Value("limit")))
		resp.Entity = found
		return nil
	}))
	require.NoError(t, h.RegisterFunc("AddBook", func(_ context.Context, req *router.Request, resp *router.Response) error {
		book, _ := req.Entity.(map[string]any)
		isbn, _ := book["isbn"].(string)
		if isbn == "" {
			return fmt.Errorf("%w: isbn is required", util.ErrBadRequest)
		}
		l.mu.Lock()
		l.books[isbn] = book
		l.mu.Unlock()
		resp.Status = http.StatusCreated
		resp.Entity = book
		return nil
	}))
	require.NoError(t, h.RegisterFunc("RemoveBook", func(_ context.Context, req *router.Request, _ *router.Response) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.books, req.Argument("isbn"))
		return nil
	}))
	require.NoError(t, h.RegisterFunc("Rename", func(_ context.Context, req *router.Request, resp *router.Response) error {
		title, _ := req.Entity.(string)
		resp.Entity = strings.ToUpper(title)
		return nil
	}))
	return h
}

type fixture struct {
	client  *Client
	methods map[string]*service.Method
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	lib := &library{books: map[string]map[string]any{
		"978-3": {"isbn": "978-3", "title": "Der Process", "author": "Franz Kafka"},
	}}
	conversions := conversion.NewDefaultService(conversion.WithDefaultCharset("utf-8"))
	s := server.New(config.ServerSettings{Name: "client-test"}, conversions, nil)
	require.NoError(t, server.NewReloader(s, testDocument, lib.handlers(t)).Reload())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", conversions, opts...)
	require.NoError(t, err)

	methods := make(map[string]*service.Method)
	for _, m := range s.Router().Methods() {
		methods[m.Name()] = m
	}
	return &fixture{client: c, methods: methods}
}

func TestNew(t *testing.T) {
	t.Parallel()

	conversions := conversion.NewDefaultService()
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
		wantURL string
	}{
		{name: "plain", baseURL: "http://localhost:8080", wantURL: "http://localhost:8080"},
		{name: "trailing slash", baseURL: "https://api.example.com/v1/", wantURL: "https://api.example.com/v1"},
		{name: "query dropped", baseURL: "http://localhost/api?debug=1", wantURL: "http://localhost/api"},
		{name: "no scheme", baseURL: "localhost:8080", wantErr: true},
		{name: "unsupported scheme", baseURL: "ftp://example.com", wantErr: true},
		{name: "malformed", baseURL: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tt.baseURL, conversions)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, c.baseURL.String())
		})
	}

	_, err := New("http://localhost", nil)
	assert.Error(t, err)
}

func TestClient_URL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	base := f.client.baseURL.String()

	got, err := f.client.URL(f.methods["SearchBooks"], map[string]string{"author": "Franz Kafka"})
	require.NoError(t, err)
	assert.Equal(t, base+"/books?author=Franz+Kafka", got)

	got, err = f.client.URL(f.methods["GetBook"], map[string]string{"isbn": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, base+"/books/a%2Fb", got)

	_, err = f.client.URL(f.methods["GetBook"], nil)
	assert.ErrorIs(t, err, util.ErrConfigInvalid)
}

func TestClient_Call(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.client.Call(ctx, f.methods["GetBook"], map[string]string{"isbn": "978-3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, conversion.MediaTypeJSON, resp.MediaType.Essence())
	assert.Equal(t, map[string]any{"isbn": "978-3", "title": "Der Process", "author": "Franz Kafka"}, resp.Entity)

	resp, err = f.client.Call(ctx, f.methods["AddBook"], nil, map[string]any{
		"isbn": "978-0", "title": "Das Schloss", "author": "Franz Kafka",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)

	resp, err = f.client.Call(ctx, f.methods["SearchBooks"], map[string]string{"author": "Franz Kafka"}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"Der Process", "Das Schloss"}, resp.Entity)
	assert.Equal(t, "5", resp.Header.Get("X-Limit"))

	resp, err = f.client.Call(ctx, f.methods["Rename"], map[string]string{"isbn": "978-0"}, "das schloss")
	require.NoError(t, err)
	assert.Equal(t, "DAS SCHLOSS", resp.Entity)
	assert.Equal(t, "text/plain; charset=utf-8", resp.MediaType.String())

	resp, err = f.client.Call(ctx, f.methods["RemoveBook"], map[string]string{"isbn": "978-0"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.Entity)

	_, err = f.client.Call(ctx, f.methods["GetBook"], map[string]string{"isbn": "978-0"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestClient_CallErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Call(ctx, f.methods["AddBook"], nil, map[string]any{"title": "Amerika"})
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode())
	assert.Equal(t, "Bad Request", serr.Body.Reason)
	assert.Contains(t, serr.Body.Message, "isbn is required")
	assert.Equal(t, http.MethodPost, serr.Method)
	assert.Equal(t, "/books", serr.URI)
	assert.ErrorIs(t, err, util.ErrBadRequest)
	assert.NotErrorIs(t, err, util.ErrNotFound)

	_, err = f.client.Call(ctx, f.methods["GetBook"], nil, nil)
	assert.ErrorIs(t, err, util.ErrConfigInvalid)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.client.Call(cancelled, f.methods["GetBook"], map[string]string{"isbn": "978-3"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ts.Close)

	groups, err := service.LoadDocument(testDocument)
	require.NoError(t, err)
	methods := service.Methods(groups)

	c, err := New(ts.URL, conversion.NewDefaultService(), WithHeader("Authorization", "Bearer token"), WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	_, err = c.Call(context.Background(), methods[0], map[string]string{"isbn": "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", got.Get("Authorization"))
	assert.Equal(t, "application/json, application/yaml, application/msgpack, application/toml, application/x-protobuf", got.Get("Accept"))
	assert.Empty(t, got.Get("Content-Type"))

	_, err = c.Call(context.Background(), methods[3], map[string]string{"isbn": "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "*/*", got.Get("Accept"))
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		target error
	}{
		{http.StatusBadRequest, util.ErrBadRequest},
		{http.StatusNotFound, util.ErrNotFound},
		{http.StatusMethodNotAllowed, util.ErrMethodNotAllowed},
		{http.StatusNotAcceptable, util.ErrNotAcceptable},
		{http.StatusUnsupportedMediaType, util.ErrUnsupportedMediaType},
		{http.StatusTooManyRequests, util.ErrRateLimited},
	}

	for _, tt := range tests {
		err := &StatusError{Method: "GET", URI: "/x", Body: conversion.ErrorBody{Status: tt.status, Reason: http.StatusText(tt.status)}}
		assert.ErrorIs(t, err, tt.target)
	}

	err := &StatusError{Method: "GET", URI: "/x", Body: conversion.ErrorBody{Status: 500, Reason: "Internal Server Error", Message: "boom"}}
	assert.Equal(t, "GET /x: 500 Internal Server Error: boom", err.Error())
	assert.NotErrorIs(t, err, util.ErrNotFound)
}

func TestStatusError_PlainBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("  upstream down \n"))
	}))
	t.Cleanup(ts.Close)

	groups, err := service.LoadDocument(testDocument)
	require.NoError(t, err)

	c, err := New(ts.URL, conversion.NewDefaultService())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), service.Methods(groups)[0], map[string]string{"isbn": "1"}, nil)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadGateway, serr.StatusCode())
	assert.Equal(t, "upstream down", serr.Body.Message)
}
