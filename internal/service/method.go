package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vyrodovalexey/avarest/internal/util"
)

// EntityType is the declared payload type of a request or response body,
// such as "String" or "List<String>".
type EntityType struct {
	Name   string
	Params []string
}

// ParseEntityType parses "Name" or "Name<P1,P2>".
func ParseEntityType(s string) (EntityType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EntityType{}, fmt.Errorf("empty entity type")
	}

	open := strings.IndexByte(s, '<')
	if open == -1 {
		if strings.ContainsAny(s, ">, ") {
			return EntityType{}, fmt.Errorf("invalid entity type %q", s)
		}
		return EntityType{Name: s}, nil
	}
	if !strings.HasSuffix(s, ">") || open == 0 {
		return EntityType{}, fmt.Errorf("invalid entity type %q", s)
	}

	et := EntityType{Name: s[:open]}
	for _, p := range strings.Split(s[open+1:len(s)-1], ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			return EntityType{}, fmt.Errorf("invalid entity type %q", s)
		}
		et.Params = append(et.Params, p)
	}
	return et, nil
}

// String renders the entity type.
func (t EntityType) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	return t.Name + "<" + strings.Join(t.Params, ",") + ">"
}

// Method is the compiled description of one endpoint: a verb, a signature
// and the handler target that serves it. Methods are immutable and safe to
// share between goroutines.
type Method struct {
	action       string
	name         string
	description  string
	signature    []PathElement
	required     int
	target       string
	requestType  *EntityType
	responseType *EntityType
}

// MethodOption is a functional option for configuring a Method.
type MethodOption func(*Method)

// WithDescription sets the method description.
func WithDescription(description string) MethodOption {
	return func(m *Method) {
		m.description = description
	}
}

// WithTarget sets the name of the handler that serves the method.
func WithTarget(target string) MethodOption {
	return func(m *Method) {
		m.target = target
	}
}

// WithRequestType declares the request body type.
func WithRequestType(t EntityType) MethodOption {
	return func(m *Method) {
		m.requestType = &t
	}
}

// WithResponseType declares the response body type.
func WithResponseType(t EntityType) MethodOption {
	return func(m *Method) {
		m.responseType = &t
	}
}

// NewMethod creates a Method and validates its signature. Path positions
// must precede matrix parameters, which must precede query parameters, and
// argument names must be unique.
func NewMethod(action, name string, signature []PathElement, opts ...MethodOption) (*Method, error) {
	if err := util.ValidateHTTPMethod(action); err != nil {
		return nil, util.NewConfigurationErrorWithCause(name, "invalid action", err)
	}
	m := &Method{
		action:    action,
		name:      name,
		signature: slices.Clone(signature),
		target:    name,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	for _, el := range m.signature {
		if el.kind.IsParameter() && !el.optional {
			m.required++
		}
	}

	return m, nil
}

func (m *Method) validate() error {
	seen := make(map[string]bool)
	phase := KindPath
	for i, el := range m.signature {
		field := fmt.Sprintf("%s.signature[%d]", m.name, i)

		switch el.kind {
		case KindPath, KindVariable, KindRegex:
			if phase != KindPath {
				return util.NewConfigurationError(field, "path element after parameters")
			}
		case KindMatrix:
			if phase == KindQuery {
				return util.NewConfigurationError(field, "matrix parameter after query parameter")
			}
			phase = KindMatrix
		case KindQuery:
			phase = KindQuery
		default:
			return util.NewConfigurationError(field, "unknown element kind")
		}

		if el.kind == KindPath {
			continue
		}
		if el.name == "" {
			return util.NewConfigurationError(field, "argument name must not be empty")
		}
		if el.kind == KindRegex && el.regex == nil {
			return util.NewConfigurationError(field, "regex element without pattern")
		}
		if seen[el.name] {
			return util.NewConfigurationError(field, fmt.Sprintf("duplicate argument %q", el.name))
		}
		seen[el.name] = true
	}
	if m.SegmentCount() == 0 {
		return util.NewConfigurationError(m.name, "signature must contain at least one path element")
	}
	return nil
}

// Action returns the HTTP verb.
func (m *Method) Action() string { return m.action }

// Name returns the method identifier. Names need not be unique.
func (m *Method) Name() string { return m.name }

// Description returns the human-readable description.
func (m *Method) Description() string { return m.description }

// Target returns the name of the handler serving the method.
func (m *Method) Target() string { return m.target }

// RequestType returns the declared request body type, or nil.
func (m *Method) RequestType() *EntityType { return m.requestType }

// ResponseType returns the declared response body type, or nil.
func (m *Method) ResponseType() *EntityType { return m.responseType }

// RequiredParameterCount returns the number of required matrix and query
// parameters.
func (m *Method) RequiredParameterCount() int { return m.required }

// Signature returns a copy of the signature elements.
func (m *Method) Signature() []PathElement { return slices.Clone(m.signature) }

// SegmentCount returns the number of path positions in the signature.
func (m *Method) SegmentCount() int {
	n := 0
	for _, el := range m.signature {
		if el.kind.IsPathPosition() {
			n++
		}
	}
	return n
}

// TrailingRegex reports whether the last path position is a regex element
// and, if so, how many path positions precede it.
func (m *Method) TrailingRegex() (int, bool) {
	last := -1
	n := 0
	for i, el := range m.signature {
		if el.kind.IsPathPosition() {
			last = i
			n++
		}
	}
	if last == -1 || m.signature[last].kind != KindRegex {
		return 0, false
	}
	return n - 1, true
}

// Argument returns the non-literal element with the given name.
func (m *Method) Argument(name string) (PathElement, bool) {
	for _, el := range m.signature {
		if el.kind != KindPath && el.name == name {
			return el, true
		}
	}
	return PathElement{}, false
}

// Arguments returns the non-literal elements in signature order.
func (m *Method) Arguments() []PathElement {
	args := make([]PathElement, 0, len(m.signature))
	for _, el := range m.signature {
		if el.kind != KindPath {
			args = append(args, el)
		}
	}
	return args
}

// String renders the method as "ACTION signature".
func (m *Method) String() string {
	var sb strings.Builder
	sb.WriteString(m.action)
	sb.WriteByte(' ')

	query := false
	for _, el := range m.signature {
		s := el.String()
		if el.kind == KindQuery && query {
			s = "&" + s[1:]
		}
		if el.kind == KindQuery {
			query = true
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// CreateURI builds a request URI for the method from raw argument values.
func (m *Method) CreateURI(args map[string]string) (string, error) {
	return BuildURI(m, args)
}

// MethodGroup is a named, ordered list of methods from one section of a
// service description.
type MethodGroup struct {
	Name        string
	Description string
	Methods     []*Method
}
