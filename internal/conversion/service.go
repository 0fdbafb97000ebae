package conversion

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vyrodovalexey/avarest/internal/observability"
	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// Negotiation result label values.
const (
	resultSelected    = "selected"
	resultRejected    = "rejected"
	directionRequest  = "request"
	directionResponse = "response"
)

// Service is the converter registry. Converters are registered per entity
// type name in server preference order. Registration is expected during
// startup; lookups are safe for concurrent use.
type Service struct {
	mu             sync.RWMutex
	converters     map[string][]Converter
	fallback       []Converter
	sortByQuality  bool
	defaultCharset string
	logger         observability.Logger
	metrics        *conversionMetrics
}

// ServiceOption is a functional option for configuring a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger observability.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithQualityOrdering makes response negotiation consider Accept entries by
// descending quality instead of order of appearance.
func WithQualityOrdering(enabled bool) ServiceOption {
	return func(s *Service) {
		s.sortByQuality = enabled
	}
}

// WithDefaultCharset sets the charset added to negotiated text media types
// that do not name one.
func WithDefaultCharset(charset string) ServiceOption {
	return func(s *Service) {
		s.defaultCharset = charset
	}
}

// NewService creates an empty converter registry.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		converters: make(map[string][]Converter),
		logger:     observability.NopLogger(),
		metrics:    getConversionMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register appends a converter for the named entity type. Earlier
// registrations are preferred during negotiation.
func (s *Service) Register(entity string, c Converter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.converters[entity] = append(s.converters[entity], c)
	s.logger.Debug("converter registered",
		observability.String("entity", entity),
		observability.String("media_type", c.MediaType().Essence()))
}

// RegisterFallback appends a converter used for entity types without
// converters of their own.
func (s *Service) RegisterFallback(c Converter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fallback = append(s.fallback, c)
}

func (s *Service) convertersFor(entity service.EntityType) []Converter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cs, ok := s.converters[entity.Name]; ok {
		return cs
	}
	return s.fallback
}

// SupportedMediaTypes returns the media types available for an entity type
// in server preference order.
func (s *Service) SupportedMediaTypes(entity service.EntityType) []MediaType {
	cs := s.convertersFor(entity)
	types := make([]MediaType, len(cs))
	for i, c := range cs {
		types[i] = c.MediaType()
	}
	return types
}

// Converter returns the preferred converter for an entity type that is
// compatible with mt.
func (s *Service) Converter(entity service.EntityType, mt MediaType) (Converter, bool) {
	for _, c := range s.convertersFor(entity) {
		if c.MediaType().IsCompatible(mt) {
			return c, true
		}
	}
	return nil, false
}

// SelectResponse picks the response representation. Requested ranges are
// considered in order and the first server-supported type compatible with
// one of them wins. A nil list selects the server's preferred type; an empty
// non-nil list comes from a header without valid entries and is not
// acceptable. The charset of the matching requested range is carried to the
// result.
func (s *Service) SelectResponse(accept []MediaType, entity service.EntityType) (MediaType, Converter, error) {
	cs := s.convertersFor(entity)

	if accept == nil && len(cs) > 0 {
		s.metrics.recordNegotiation(directionResponse, resultSelected)
		return s.withCharset(cs[0].MediaType(), ""), cs[0], nil
	}

	if s.sortByQuality {
		accept = append([]MediaType(nil), accept...)
		SortByQuality(accept)
	}

	for _, requested := range accept {
		if requested.Quality == 0 {
			continue
		}
		for _, c := range cs {
			if !c.MediaType().IsCompatible(requested) {
				continue
			}
			charset, _ := requested.Param(ParamCharset)
			s.metrics.recordNegotiation(directionResponse, resultSelected)
			return s.withCharset(c.MediaType(), charset), c, nil
		}
	}

	s.metrics.recordNegotiation(directionResponse, resultRejected)
	s.logger.Debug("no acceptable response representation",
		observability.String("entity", entity.String()),
		observability.String("accept", joinMediaTypes(accept)))

	return MediaType{}, nil, util.NewNotAcceptableError(
		joinMediaTypes(accept), entity.String(), essences(s.SupportedMediaTypes(entity)))
}

// NegotiateResponse parses an Accept header and selects the response
// representation.
func (s *Service) NegotiateResponse(acceptHeader string, entity service.EntityType) (MediaType, Converter, error) {
	return s.SelectResponse(ParseMediaTypes(acceptHeader), entity)
}

// SelectRequest picks the converter for a request body of the declared
// content type. The returned media type keeps the declared parameters.
func (s *Service) SelectRequest(contentType string, entity service.EntityType) (MediaType, Converter, error) {
	mt, err := ParseMediaType(contentType)
	if err == nil && mt.Type != Wildcard && mt.Subtype != Wildcard {
		if c, ok := s.Converter(entity, mt); ok {
			s.metrics.recordNegotiation(directionRequest, resultSelected)
			return mt, c, nil
		}
	}

	s.metrics.recordNegotiation(directionRequest, resultRejected)
	return MediaType{}, nil, util.NewUnsupportedMediaTypeError(
		contentType, entity.String(), essences(s.SupportedMediaTypes(entity)))
}

// ReadEntity decodes a request body. Negotiation failures are
// *util.NegotiationError, malformed bodies wrap util.ErrBadRequest.
func (s *Service) ReadEntity(contentType string, entity service.EntityType, data []byte) (any, error) {
	mt, c, err := s.SelectRequest(contentType, entity)
	if err != nil {
		return nil, err
	}

	v, err := c.Unmarshal(data, mt)
	if err != nil {
		s.metrics.recordDecode(mt.Essence(), resultRejected)
		return nil, fmt.Errorf("%w: %w", util.ErrBadRequest, err)
	}
	s.metrics.recordDecode(mt.Essence(), resultSelected)
	return v, nil
}

// WriteEntity negotiates and encodes a response body. It returns the media
// type to announce in Content-Type.
func (s *Service) WriteEntity(accept []MediaType, entity service.EntityType, value any) (MediaType, []byte, error) {
	mt, c, err := s.SelectResponse(accept, entity)
	if err != nil {
		return MediaType{}, nil, err
	}

	data, err := c.Marshal(value, mt)
	if err != nil {
		s.metrics.recordEncode(mt.Essence(), resultRejected)
		return MediaType{}, nil, err
	}
	s.metrics.recordEncode(mt.Essence(), resultSelected)
	return mt, data, nil
}

func (s *Service) withCharset(mt MediaType, charset string) MediaType {
	if mt.Type != "text" {
		return mt
	}
	if charset != "" {
		if _, err := LookupCharset(charset); err == nil {
			return mt.WithParam(ParamCharset, charset)
		}
	}
	if s.defaultCharset != "" {
		if _, ok := mt.Param(ParamCharset); !ok {
			return mt.WithParam(ParamCharset, s.defaultCharset)
		}
	}
	return mt
}

func essences(types []MediaType) []string {
	out := make([]string, len(types))
	for i, mt := range types {
		out[i] = mt.Essence()
	}
	return out
}

func joinMediaTypes(types []MediaType) string {
	parts := make([]string, len(types))
	for i, mt := range types {
		parts[i] = mt.String()
	}
	return strings.Join(parts, ", ")
}
