package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/middleware"
	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/router"
	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// errNotReady is reported while no started router is installed.
var errNotReady = errors.New("service is not ready")

var errorEntity = service.EntityType{Name: conversion.ErrorEntity}

// handleREST dispatches a request through the router, converts arguments
// and entities, invokes the method handler and encodes its result.
func (s *Server) handleREST(c *gin.Context) {
	rt := s.router.Load()
	if rt == nil || !rt.IsStarted() {
		s.writeError(c, http.StatusServiceUnavailable, errNotReady)
		return
	}

	req := c.Request
	match, err := rt.DispatchTarget(req.Method, requestTarget(req))
	if err != nil {
		s.logger.WithContext(req.Context()).Debug("dispatch failed",
			observability.String("method", req.Method),
			observability.String("target", requestTarget(req)),
			observability.Error(err),
		)
		s.writeError(c, util.StatusCode(err), err)
		return
	}

	m := match.Route.Method()
	middleware.SetRoute(c, m.Name())
	ctx := util.ContextWithRoute(req.Context(), m.Name())
	ctx = util.ContextWithArguments(ctx, match.Arguments)
	c.Request = req.WithContext(ctx)

	values, err := conversion.ConvertArguments(m, match.Arguments)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, err)
		return
	}

	entity, err := s.readEntity(c, m)
	if err != nil {
		s.writeError(c, util.StatusCode(err), err)
		return
	}

	accept := conversion.ParseMediaTypes(req.Header.Get("Accept"))
	var (
		responseType *conversion.MediaType
		converter    conversion.Converter
	)
	if rtype := m.ResponseType(); rtype != nil {
		mt, conv, err := s.conversions.SelectResponse(accept, *rtype)
		if err != nil {
			s.writeError(c, util.StatusCode(err), err)
			return
		}
		responseType, converter = &mt, conv
	}

	handler := match.Route.Handler()
	if handler == nil {
		s.writeError(c, http.StatusNotImplemented, fmt.Errorf("no handler bound to method %s", m.Name()))
		return
	}

	resp := router.NewResponse()
	err = handler.ServeREST(c.Request.Context(), &router.Request{
		Method:    m,
		Arguments: match.Arguments,
		Values:    values,
		Header:    req.Header,
		Entity:    entity,
	}, resp)
	if err != nil {
		status := util.StatusCode(err)
		if status >= http.StatusInternalServerError {
			s.logger.WithContext(c.Request.Context()).Error("handler failed",
				observability.String("method", m.Name()),
				observability.Error(err),
			)
		}
		s.writeError(c, status, err)
		return
	}

	for name, vs := range resp.Header {
		for _, v := range vs {
			c.Writer.Header().Add(name, v)
		}
	}

	if responseType == nil || resp.Entity == nil {
		c.Status(statusOr(resp.Status, http.StatusNoContent))
		c.Writer.WriteHeaderNow()
		return
	}

	body, err := converter.Marshal(resp.Entity, *responseType)
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Error("failed to encode response",
			observability.String("method", m.Name()),
			observability.Error(err),
		)
		s.writeError(c, http.StatusInternalServerError, err)
		return
	}
	s.writeBody(c, statusOr(resp.Status, http.StatusOK), *responseType, body)
}

// readEntity decodes the request body when the method declares a request
// type. An absent body yields a nil entity.
func (s *Server) readEntity(c *gin.Context, m *service.Method) (any, error) {
	rtype := m.RequestType()
	if rtype == nil || c.Request.Body == nil {
		return nil, nil
	}

	body := c.Request.Body
	if s.maxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, s.maxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request entity exceeds %d bytes", util.ErrBadRequest, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: failed to read request entity: %w", util.ErrBadRequest, err)
	}

	contentType := c.Request.Header.Get("Content-Type")
	if len(data) == 0 && contentType == "" {
		return nil, nil
	}
	return s.conversions.ReadEntity(contentType, *rtype, data)
}

// writeError renders err as an Error entity in the representation the
// client accepts, falling back to text/plain.
func (s *Server) writeError(c *gin.Context, status int, err error) {
	_ = c.Error(err)

	var notAllowed *util.MethodNotAllowedError
	if errors.As(err, &notAllowed) {
		c.Header("Allow", strings.Join(notAllowed.Allowed, ", "))
	}

	body := conversion.NewErrorBody(status, err)
	accept := conversion.ParseMediaTypes(c.GetHeader("Accept"))
	mt, data, encErr := s.conversions.WriteEntity(accept, errorEntity, body)
	if encErr != nil {
		mt = conversion.MustParseMediaType(conversion.MediaTypeTextPlain)
		data, _ = conversion.NewErrorTextConverter().Marshal(body, mt)
	}

	s.writeBody(c, status, mt, data)
	c.Abort()
}

func (s *Server) writeBody(c *gin.Context, status int, mt conversion.MediaType, body []byte) {
	c.Header("Content-Type", mt.String())
	c.Status(status)
	if c.Request.Method == http.MethodHead {
		c.Writer.WriteHeaderNow()
		return
	}
	_, _ = c.Writer.Write(body)
}

// requestTarget returns the escaped path and query as sent by the client.
func requestTarget(r *http.Request) string {
	if strings.HasPrefix(r.RequestURI, "/") {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

func statusOr(status, def int) int {
	if status == 0 {
		return def
	}
	return status
}
