package router

import (
	"net/http"
	"strings"

	"github.com/vyrodovalexey/avarest/internal/service"
)

// Route is a registered method together with the handler resolved for its
// target.
type Route struct {
	method    *service.Method
	handler   Handler
	signature []service.PathElement
	// lastPosition is the signature index of the final path position.
	lastPosition int
}

func newRoute(m *service.Method, h Handler) *Route {
	sig := m.Signature()
	last := -1
	for i, el := range sig {
		if el.Kind().IsPathPosition() {
			last = i
		}
	}
	return &Route{method: m, handler: h, signature: sig, lastPosition: last}
}

// Method returns the method descriptor.
func (r *Route) Method() *service.Method { return r.method }

// Handler returns the handler serving the route, or nil when the router has
// no resolver.
func (r *Route) Handler() Handler { return r.handler }

// acceptsVerb reports whether verb passes the verb check. HEAD is matched as
// GET and OPTIONS matches every route.
func (r *Route) acceptsVerb(verb string) bool {
	switch verb {
	case http.MethodOptions:
		return true
	case http.MethodHead:
		verb = http.MethodGet
	}
	return r.method.Action() == verb
}

// Match tests the route against a decoded request. On success it returns the
// bound arguments, including defaults of absent optional parameters.
func (r *Route) Match(verb string, segments []string, matrix, query map[string]string) (map[string]string, bool) {
	if !r.acceptsVerb(verb) {
		return nil, false
	}
	return r.matchShape(segments, matrix, query)
}

func (r *Route) matchShape(segments []string, matrix, query map[string]string) (map[string]string, bool) {
	args := make(map[string]string, len(r.signature))
	unconsumedMatrix := len(matrix)
	pos := 0

	for i, el := range r.signature {
		switch el.Kind() {
		case service.KindPath:
			if pos >= len(segments) || segments[pos] != el.Name() {
				return nil, false
			}
			pos++

		case service.KindVariable:
			if pos >= len(segments) || segments[pos] == "" {
				return nil, false
			}
			args[el.Name()] = segments[pos]
			pos++

		case service.KindRegex:
			if pos >= len(segments) {
				return nil, false
			}
			var value string
			if i == r.lastPosition {
				value = strings.Join(segments[pos:], "/")
				pos = len(segments)
			} else {
				value = segments[pos]
				if value == "" {
					return nil, false
				}
				pos++
			}
			if !el.MatchString(value) {
				return nil, false
			}
			args[el.Name()] = value

		case service.KindMatrix:
			if value, ok := matrix[el.Name()]; ok {
				args[el.Name()] = value
				unconsumedMatrix--
			} else if el.IsOptional() {
				args[el.Name()] = el.DefaultValue()
			} else {
				return nil, false
			}

		case service.KindQuery:
			if unconsumedMatrix != 0 {
				return nil, false
			}
			if value, ok := query[el.Name()]; ok {
				args[el.Name()] = value
			} else if el.IsOptional() {
				args[el.Name()] = el.DefaultValue()
			} else {
				return nil, false
			}
		}
	}

	if pos != len(segments) {
		return nil, false
	}
	return args, true
}

// compareRoutes orders two routes of the same bucket. A positive result
// means a is tried before b. Literal segments outrank variables and
// variables outrank regex captures; otherwise more required parameters win.
func compareRoutes(a, b *Route) int {
	n := min(len(a.signature), len(b.signature))
	for i := 0; i < n; i++ {
		ak := a.signature[i].Kind()
		bk := b.signature[i].Kind()
		if ak == bk {
			continue
		}
		switch {
		case ak == service.KindPath:
			return 1
		case bk == service.KindPath:
			return -1
		case ak == service.KindVariable:
			return 1
		case bk == service.KindVariable:
			return -1
		}
		break
	}
	return a.method.RequiredParameterCount() - b.method.RequiredParameterCount()
}
