package router

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/vyrodovalexey/avarest/internal/util"
)

var errInvalidUTF8 = errors.New("decoded value is not valid UTF-8")

// Target is a raw request target split into its routing components. All
// fields are still percent-encoded.
type Target struct {
	Path   string
	Matrix string
	Query  string
}

// ParseTarget splits a raw request target of the form
// "/a/b;m1=x;m2=y?q=z". Matrix parameters are taken from the last path
// segment only. A fragment is discarded.
func ParseTarget(raw string) Target {
	raw, _, _ = strings.Cut(raw, "#")

	var t Target
	raw, t.Query, _ = strings.Cut(raw, "?")

	lastSlash := strings.LastIndexByte(raw, '/')
	if i := strings.IndexByte(raw[lastSlash+1:], ';'); i != -1 {
		cut := lastSlash + 1 + i
		t.Matrix = raw[cut+1:]
		raw = raw[:cut]
	}
	t.Path = raw
	return t
}

// DecodePath splits an escaped path on '/' and percent-decodes every
// segment independently, so an escaped '/' stays inside its segment. Empty
// segments are preserved; "/" yields a single empty segment.
func DecodePath(rawPath string) ([]string, error) {
	if rawPath == "" {
		rawPath = "/"
	}
	if rawPath[0] != '/' {
		return nil, util.NewDecodingError(rawPath, errors.New("path must start with '/'"))
	}

	segments := strings.Split(rawPath[1:], "/")
	for i, seg := range segments {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return nil, util.NewDecodingError(rawPath, err)
		}
		if !utf8.ValidString(decoded) {
			return nil, util.NewDecodingError(rawPath, errInvalidUTF8)
		}
		segments[i] = decoded
	}
	return segments, nil
}

// DecodeParams decodes a sep-separated list of name=value pairs with
// query-string rules. An entry without '=' is present with an empty value.
// Empty entries are skipped and later duplicates win.
func DecodeParams(raw string, sep byte) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}

	params := make(map[string]string)
	for _, part := range strings.Split(raw, string(sep)) {
		if part == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(part, "=")

		name, err := unescapeParam(raw, rawName)
		if err != nil {
			return nil, err
		}
		value, err := unescapeParam(raw, rawValue)
		if err != nil {
			return nil, err
		}
		params[name] = value
	}
	return params, nil
}

func unescapeParam(raw, s string) (string, error) {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return "", util.NewDecodingError(raw, err)
	}
	if !utf8.ValidString(decoded) {
		return "", util.NewDecodingError(raw, errInvalidUTF8)
	}
	return decoded, nil
}
