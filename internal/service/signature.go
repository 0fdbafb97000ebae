package service

import (
	"fmt"
	"net/url"
	"strings"
)

// defaultRegexPattern is used for regex elements declared without a pattern.
const defaultRegexPattern = ".*"

// ArgumentSpec declares the type and documentation of one signature argument.
type ArgumentSpec struct {
	Type        ValueType
	Pattern     string
	Description string
}

// ParseSignature parses the compact signature syntax used by service
// descriptions:
//
//	/literal      literal path segment
//	/:name        path variable
//	/*name        regex capture, pattern taken from args[name].Pattern
//	;name         required matrix parameter
//	;name=value   optional matrix parameter with a default
//	?name         required query parameter, further ones joined with &
//	?name=value   optional query parameter with a default
//
// Defaults are query-decoded, so "?name=Franz+Kafka" has the default
// "Franz Kafka". Every entry of args must name an argument of the signature.
func ParseSignature(signature string, args map[string]ArgumentSpec) ([]PathElement, error) {
	if !strings.HasPrefix(signature, "/") {
		return nil, fmt.Errorf("signature %q must start with '/'", signature)
	}

	pathPart, queryPart, hasQuery := strings.Cut(signature, "?")
	segPart, matrixPart, hasMatrix := strings.Cut(pathPart, ";")

	var elements []PathElement
	used := make(map[string]bool)

	for _, seg := range strings.Split(segPart[1:], "/") {
		el, err := parseSegment(seg, args)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", signature, err)
		}
		if el.kind != KindPath {
			used[el.name] = true
		}
		elements = append(elements, el)
	}

	if hasMatrix {
		for _, part := range strings.Split(matrixPart, ";") {
			el, err := parseParameter(KindMatrix, part, args)
			if err != nil {
				return nil, fmt.Errorf("signature %q: %w", signature, err)
			}
			used[el.name] = true
			elements = append(elements, el)
		}
	}

	if hasQuery {
		for _, part := range strings.Split(queryPart, "&") {
			el, err := parseParameter(KindQuery, part, args)
			if err != nil {
				return nil, fmt.Errorf("signature %q: %w", signature, err)
			}
			used[el.name] = true
			elements = append(elements, el)
		}
	}

	for name := range args {
		if !used[name] {
			return nil, fmt.Errorf("signature %q: argument %q is not part of the signature", signature, name)
		}
	}

	return elements, nil
}

func parseSegment(seg string, args map[string]ArgumentSpec) (PathElement, error) {
	switch {
	case strings.HasPrefix(seg, ":"):
		name := seg[1:]
		if name == "" {
			return PathElement{}, fmt.Errorf("empty variable name")
		}
		spec := args[name]
		if spec.Pattern != "" {
			return PathElement{}, fmt.Errorf("variable %q cannot declare a pattern", name)
		}
		return Variable(name, spec.Type).WithDescription(spec.Description), nil

	case strings.HasPrefix(seg, "*"):
		name := seg[1:]
		if name == "" {
			return PathElement{}, fmt.Errorf("empty regex name")
		}
		spec := args[name]
		pattern := spec.Pattern
		if pattern == "" {
			pattern = defaultRegexPattern
		}
		re, err := compilePattern(pattern)
		if err != nil {
			return PathElement{}, fmt.Errorf("regex %q: %w", name, err)
		}
		return Regex(name, re).WithDescription(spec.Description), nil

	default:
		return Literal(seg), nil
	}
}

func parseParameter(kind ElementKind, part string, args map[string]ArgumentSpec) (PathElement, error) {
	rawName, rawDefault, optional := strings.Cut(part, "=")
	if rawName == "" {
		return PathElement{}, fmt.Errorf("empty %s parameter name", kind)
	}

	spec := args[rawName]
	if spec.Pattern != "" {
		return PathElement{}, fmt.Errorf("%s parameter %q cannot declare a pattern", kind, rawName)
	}

	if !optional {
		if kind == KindMatrix {
			return Matrix(rawName, spec.Type).WithDescription(spec.Description), nil
		}
		return Query(rawName, spec.Type).WithDescription(spec.Description), nil
	}

	def, err := url.QueryUnescape(rawDefault)
	if err != nil {
		return PathElement{}, fmt.Errorf("default of %s parameter %q: %w", kind, rawName, err)
	}
	if _, err := spec.Type.Convert(def); err != nil {
		return PathElement{}, fmt.Errorf("default of %s parameter %q is not a valid %s: %w",
			kind, rawName, spec.Type, err)
	}

	if kind == KindMatrix {
		return OptionalMatrix(rawName, spec.Type, def).WithDescription(spec.Description), nil
	}
	return OptionalQuery(rawName, spec.Type, def).WithDescription(spec.Description), nil
}
