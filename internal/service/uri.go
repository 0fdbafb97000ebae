package service

import (
	"net/url"
	"strings"

	"github.com/vyrodovalexey/avarest/internal/util"
)

// BuildURI builds the request URI that selects method m with the given raw
// argument values.
//
// Variable and regex values use path segment encoding, so '/', ';', '?' and
// spaces are escaped while '=', '+' and '&' are kept. Matrix and query values
// use query encoding, where a space becomes '+' and '&', '=', '/' and ';' are
// escaped. A trailing regex value keeps its '/' separators. Optional
// parameters are omitted when absent or equal to their default. A missing
// required argument is a *util.ConfigurationError.
func BuildURI(m *Method, args map[string]string) (string, error) {
	var path, query strings.Builder

	lastPosition := -1
	for i, el := range m.signature {
		if el.kind.IsPathPosition() {
			lastPosition = i
		}
	}

	for i, el := range m.signature {
		switch el.kind {
		case KindPath:
			path.WriteByte('/')
			path.WriteString(el.name)

		case KindVariable:
			value, ok := args[el.name]
			if !ok || value == "" {
				return "", missingArgument(m, el)
			}
			path.WriteByte('/')
			path.WriteString(url.PathEscape(value))

		case KindRegex:
			value, ok := args[el.name]
			if !ok || (value == "" && i != lastPosition) {
				return "", missingArgument(m, el)
			}
			path.WriteByte('/')
			if i == lastPosition {
				path.WriteString(escapeSegments(value))
			} else {
				path.WriteString(url.PathEscape(value))
			}

		case KindMatrix:
			value, emit, err := parameterValue(m, el, args)
			if err != nil {
				return "", err
			}
			if emit {
				path.WriteByte(';')
				path.WriteString(url.QueryEscape(el.name))
				path.WriteByte('=')
				path.WriteString(url.QueryEscape(value))
			}

		case KindQuery:
			value, emit, err := parameterValue(m, el, args)
			if err != nil {
				return "", err
			}
			if emit {
				if query.Len() == 0 {
					query.WriteByte('?')
				} else {
					query.WriteByte('&')
				}
				query.WriteString(url.QueryEscape(el.name))
				query.WriteByte('=')
				query.WriteString(url.QueryEscape(value))
			}
		}
	}

	return path.String() + query.String(), nil
}

func parameterValue(m *Method, el PathElement, args map[string]string) (string, bool, error) {
	value, ok := args[el.name]
	if el.optional {
		return value, ok && value != el.defaultValue, nil
	}
	if !ok {
		return "", false, missingArgument(m, el)
	}
	return value, true, nil
}

func escapeSegments(value string) string {
	segments := strings.Split(value, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func missingArgument(m *Method, el PathElement) error {
	return util.NewConfigurationError(m.name, "missing value for required "+el.kind.String()+" argument "+el.name)
}
