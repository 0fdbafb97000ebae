package conversion

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/vyrodovalexey/avarest/internal/service"
)

// textConverter renders scalar values as text/plain. The body is transcoded
// to and from the charset named by the negotiated media type.
type textConverter struct {
	mediaType MediaType
	format    func(any) (string, error)
	parse     func(string) (any, error)
}

// NewTextConverter creates a text/plain converter for a scalar value type.
// Parsing follows the same rules as request arguments.
func NewTextConverter(valueType service.ValueType) Converter {
	return &textConverter{
		mediaType: MustParseMediaType(MediaTypeTextPlain),
		format:    valueType.Format,
		parse: func(s string) (any, error) {
			if valueType == service.TypeString {
				return s, nil
			}
			return valueType.Convert(strings.TrimSpace(s))
		},
	}
}

// NewByteTextConverter creates a text/plain converter for single byte values
// written in decimal.
func NewByteTextConverter() Converter {
	return &textConverter{
		mediaType: MustParseMediaType(MediaTypeTextPlain),
		format:    cast.ToStringE,
		parse: func(s string) (any, error) {
			n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
			if err != nil {
				return nil, err
			}
			return uint8(n), nil
		},
	}
}

// NewCharacterTextConverter creates a text/plain converter for single
// characters. Parsing takes the first rune of the body.
func NewCharacterTextConverter() Converter {
	return &textConverter{
		mediaType: MustParseMediaType(MediaTypeTextPlain),
		format: func(v any) (string, error) {
			if r, ok := v.(rune); ok {
				return string(r), nil
			}
			return cast.ToStringE(v)
		},
		parse: func(s string) (any, error) {
			r, size := utf8.DecodeRuneInString(s)
			if size == 0 {
				return nil, fmt.Errorf("empty character")
			}
			return r, nil
		},
	}
}

func (c *textConverter) MediaType() MediaType { return c.mediaType }

func (c *textConverter) Marshal(value any, mt MediaType) ([]byte, error) {
	s, err := c.format(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncodingFailed, MediaTypeTextPlain, err)
	}
	data, err := encodeText(s, mt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncodingFailed, MediaTypeTextPlain, err)
	}
	return data, nil
}

func (c *textConverter) Unmarshal(data []byte, mt MediaType) (any, error) {
	s, err := decodeText(data, mt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodingFailed, MediaTypeTextPlain, err)
	}
	v, err := c.parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodingFailed, MediaTypeTextPlain, err)
	}
	return v, nil
}

// LookupCharset resolves a charset label such as "utf-8" or "latin1". An
// empty label means UTF-8 and returns a nil encoding.
func LookupCharset(label string) (encoding.Encoding, error) {
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

func encodeText(s string, mt MediaType) ([]byte, error) {
	label, _ := mt.Param(ParamCharset)
	enc, err := LookupCharset(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(s), nil
	}
	return enc.NewEncoder().Bytes([]byte(s))
}

func decodeText(data []byte, mt MediaType) (string, error) {
	label, _ := mt.Param(ParamCharset)
	enc, err := LookupCharset(label)
	if err != nil {
		return "", err
	}
	if enc == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("body is not valid UTF-8")
		}
		return string(data), nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
