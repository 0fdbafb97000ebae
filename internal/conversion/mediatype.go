package conversion

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Wildcard matches any primary type or subtype.
const Wildcard = "*"

// Common media types.
const (
	MediaTypeTextPlain = "text/plain"
	MediaTypeJSON      = "application/json"
	MediaTypeYAML      = "application/yaml"
	MediaTypeMsgpack   = "application/msgpack"
	MediaTypeTOML      = "application/toml"
	MediaTypeProtobuf  = "application/x-protobuf"
)

// ParamCharset is the media type parameter naming a text encoding.
const ParamCharset = "charset"

// Param is one media type parameter. Names are lower case.
type Param struct {
	Name  string
	Value string
}

// MediaType is a parsed media range such as "text/plain; charset=utf-8;
// q=0.5". The quality weight is kept apart from the other parameters, which
// preserve their order of appearance.
type MediaType struct {
	Type    string
	Subtype string
	Params  []Param
	Quality float64
}

// NewMediaType creates a media type with quality 1.
func NewMediaType(typ, subtype string, params ...Param) MediaType {
	return MediaType{
		Type:    strings.ToLower(typ),
		Subtype: strings.ToLower(subtype),
		Params:  slices.Clone(params),
		Quality: 1,
	}
}

// AnyMediaType returns "*/*", the range that accepts every representation.
func AnyMediaType() MediaType {
	return NewMediaType(Wildcard, Wildcard)
}

// MustParseMediaType parses s and panics on error. It is meant for constants.
func MustParseMediaType(s string) MediaType {
	mt, err := ParseMediaType(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// ParseMediaType parses a single media range. Type, subtype and parameter
// names are case-insensitive and stored in lower case. A "q" parameter sets
// the quality, which must lie within [0, 1].
func ParseMediaType(s string) (MediaType, error) {
	parts := strings.Split(s, ";")

	essence := strings.TrimSpace(parts[0])
	typ, subtype, ok := strings.Cut(essence, "/")
	typ = strings.TrimSpace(typ)
	subtype = strings.TrimSpace(subtype)
	if !ok || typ == "" || subtype == "" || strings.ContainsAny(subtype, "/ ") {
		return MediaType{}, fmt.Errorf("invalid media type %q", s)
	}
	if typ == Wildcard && subtype != Wildcard {
		return MediaType{}, fmt.Errorf("invalid media type %q: wildcard type with concrete subtype", s)
	}

	mt := NewMediaType(typ, subtype)
	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, value, ok := strings.Cut(raw, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return MediaType{}, fmt.Errorf("invalid parameter %q in media type %q", raw, s)
		}
		value = unquote(strings.TrimSpace(value))

		if name == "q" {
			q, err := strconv.ParseFloat(value, 64)
			if err != nil || q < 0 || q > 1 {
				return MediaType{}, fmt.Errorf("invalid quality %q in media type %q", value, s)
			}
			mt.Quality = q
			continue
		}
		mt.Params = append(mt.Params, Param{Name: name, Value: value})
	}
	return mt, nil
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if u, err := strconv.Unquote(v); err == nil {
			return u
		}
		return v[1 : len(v)-1]
	}
	return v
}

// ParseMediaTypes parses an Accept header into media ranges in order of
// appearance. An empty header yields a single "*/*" entry. Malformed entries
// are skipped; a header without any valid entry yields an empty, non-nil
// list, which accepts nothing.
func ParseMediaTypes(header string) []MediaType {
	if strings.TrimSpace(header) == "" {
		return []MediaType{AnyMediaType()}
	}

	parts := strings.Split(header, ",")
	types := make([]MediaType, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		mt, err := ParseMediaType(part)
		if err != nil {
			continue
		}
		types = append(types, mt)
	}
	return types
}

// SortByQuality orders media ranges by descending quality. Entries of equal
// quality keep their relative order.
func SortByQuality(types []MediaType) {
	slices.SortStableFunc(types, func(a, b MediaType) int {
		switch {
		case a.Quality > b.Quality:
			return -1
		case a.Quality < b.Quality:
			return 1
		default:
			return 0
		}
	})
}

// IsCompatible reports whether two media ranges overlap: an exact match, a
// wildcard subtype on either side with the same primary type, or "*/*" on
// either side. Parameters are ignored.
func (m MediaType) IsCompatible(other MediaType) bool {
	if m.Type == Wildcard || other.Type == Wildcard {
		return true
	}
	if m.Type != other.Type {
		return false
	}
	return m.Subtype == Wildcard || other.Subtype == Wildcard || m.Subtype == other.Subtype
}

// Essence returns "type/subtype".
func (m MediaType) Essence() string {
	return m.Type + "/" + m.Subtype
}

// Param returns the value of the named parameter.
func (m MediaType) Param(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, p := range m.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// WithParam returns a copy of m with the named parameter set, replacing an
// existing value in place.
func (m MediaType) WithParam(name, value string) MediaType {
	name = strings.ToLower(name)
	params := slices.Clone(m.Params)
	for i := range params {
		if params[i].Name == name {
			params[i].Value = value
			m.Params = params
			return m
		}
	}
	m.Params = append(params, Param{Name: name, Value: value})
	return m
}

// WithoutParams returns a copy of m without parameters and with quality 1.
func (m MediaType) WithoutParams() MediaType {
	return NewMediaType(m.Type, m.Subtype)
}

// String renders the media type as a header value. The quality is included
// only when it is below 1.
func (m MediaType) String() string {
	var sb strings.Builder
	sb.WriteString(m.Essence())
	for _, p := range m.Params {
		sb.WriteString("; ")
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(quoteIfNeeded(p.Value))
	}
	if m.Quality < 1 {
		sb.WriteString("; q=")
		sb.WriteString(strconv.FormatFloat(m.Quality, 'g', 3, 64))
	}
	return sb.String()
}

func quoteIfNeeded(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\",;()<>@:\\/[]?={}") {
		return strconv.Quote(v)
	}
	return v
}
