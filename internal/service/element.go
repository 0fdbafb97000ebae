package service

import (
	"fmt"
	"regexp"
)

// ElementKind identifies the role of a PathElement within a signature.
type ElementKind int

// Element kinds.
const (
	// KindPath is a literal path segment.
	KindPath ElementKind = iota
	// KindVariable captures exactly one non-empty path segment.
	KindVariable
	// KindMatrix is a ;name=value parameter on the last path segment.
	KindMatrix
	// KindQuery is a name=value parameter of the query string.
	KindQuery
	// KindRegex captures path segments that satisfy a pattern.
	KindRegex
)

// String returns the string representation of the element kind.
func (k ElementKind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindVariable:
		return "variable"
	case KindMatrix:
		return "matrix"
	case KindQuery:
		return "query"
	case KindRegex:
		return "regex"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// IsPathPosition reports whether elements of this kind consume path segments.
func (k ElementKind) IsPathPosition() bool {
	return k == KindPath || k == KindVariable || k == KindRegex
}

// IsParameter reports whether elements of this kind are matrix or query parameters.
func (k ElementKind) IsParameter() bool {
	return k == KindMatrix || k == KindQuery
}

// PathElement describes one element of a method signature. It is immutable
// once constructed.
type PathElement struct {
	name         string
	kind         ElementKind
	valueType    ValueType
	optional     bool
	defaultValue string
	regex        *regexp.Regexp
	matcher      *regexp.Regexp
	description  string
}

// Literal creates a path element that must equal token.
func Literal(token string) PathElement {
	return PathElement{name: token, kind: KindPath, valueType: TypeString}
}

// Variable creates a path element that binds one non-empty segment.
func Variable(name string, valueType ValueType) PathElement {
	return PathElement{name: name, kind: KindVariable, valueType: valueType}
}

// Regex creates a path element whose value must satisfy pattern. The pattern
// is evaluated against the end of the captured value.
func Regex(name string, pattern *regexp.Regexp) PathElement {
	return PathElement{
		name:      name,
		kind:      KindRegex,
		valueType: TypeString,
		regex:     pattern,
		matcher:   mustCompilePattern(`(?:` + pattern.String() + `)$`),
	}
}

// Matrix creates a required matrix parameter.
func Matrix(name string, valueType ValueType) PathElement {
	return PathElement{name: name, kind: KindMatrix, valueType: valueType}
}

// OptionalMatrix creates a matrix parameter that binds defaultValue when absent.
func OptionalMatrix(name string, valueType ValueType, defaultValue string) PathElement {
	return PathElement{
		name: name, kind: KindMatrix, valueType: valueType, optional: true, defaultValue: defaultValue,
	}
}

// Query creates a required query parameter.
func Query(name string, valueType ValueType) PathElement {
	return PathElement{name: name, kind: KindQuery, valueType: valueType}
}

// OptionalQuery creates a query parameter that binds defaultValue when absent.
func OptionalQuery(name string, valueType ValueType, defaultValue string) PathElement {
	return PathElement{
		name: name, kind: KindQuery, valueType: valueType, optional: true, defaultValue: defaultValue,
	}
}

// WithDescription returns a copy of the element carrying a description.
func (e PathElement) WithDescription(description string) PathElement {
	e.description = description
	return e
}

// Name returns the argument name, or the literal token for path elements.
func (e PathElement) Name() string { return e.name }

// Kind returns the element kind.
func (e PathElement) Kind() ElementKind { return e.kind }

// ValueType returns the declared type of the bound value.
func (e PathElement) ValueType() ValueType { return e.valueType }

// IsOptional reports whether a matrix or query element may be omitted.
func (e PathElement) IsOptional() bool { return e.optional }

// DefaultValue returns the value bound when an optional element is absent.
func (e PathElement) DefaultValue() string { return e.defaultValue }

// Pattern returns the declared pattern of a regex element, or nil.
func (e PathElement) Pattern() *regexp.Regexp { return e.regex }

// Description returns the human-readable description.
func (e PathElement) Description() string { return e.description }

// MatchString reports whether value satisfies a regex element. The pattern
// may match anywhere as long as the match extends to the end of value.
func (e PathElement) MatchString(value string) bool {
	if e.matcher == nil {
		return false
	}
	return e.matcher.MatchString(value)
}

// String renders the element in signature syntax.
func (e PathElement) String() string {
	switch e.kind {
	case KindPath:
		return "/" + e.name
	case KindVariable:
		return "/:" + e.name
	case KindRegex:
		return "/*" + e.name
	case KindMatrix:
		if e.optional {
			return ";" + e.name + "=" + e.defaultValue
		}
		return ";" + e.name
	case KindQuery:
		if e.optional {
			return "?" + e.name + "=" + e.defaultValue
		}
		return "?" + e.name
	default:
		return e.name
	}
}
