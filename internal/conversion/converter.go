package conversion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Common conversion errors.
var (
	// ErrEncodingFailed indicates that a value could not be rendered.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrDecodingFailed indicates that a body could not be parsed.
	ErrDecodingFailed = errors.New("decoding failed")
)

// Converter renders values of one entity type in one media type and parses
// them back. The media type passed to Marshal and Unmarshal is the
// negotiated one and may carry parameters such as charset. Implementations
// must be safe for concurrent use.
type Converter interface {
	MediaType() MediaType
	Marshal(value any, mt MediaType) ([]byte, error)
	Unmarshal(data []byte, mt MediaType) (any, error)
}

// Coercion normalizes a decoded value into the Go type of an entity, for
// example a JSON number into int64 for Integer payloads.
type Coercion func(any) (any, error)

// codecConverter adapts a byte codec to the Converter interface.
type codecConverter struct {
	mediaType MediaType
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte) (any, error)
	coerce    Coercion
}

func (c *codecConverter) MediaType() MediaType { return c.mediaType }

func (c *codecConverter) Marshal(value any, _ MediaType) ([]byte, error) {
	data, err := c.marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncodingFailed, c.mediaType.Essence(), err)
	}
	return data, nil
}

func (c *codecConverter) Unmarshal(data []byte, _ MediaType) (any, error) {
	v, err := c.unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodingFailed, c.mediaType.Essence(), err)
	}
	if c.coerce != nil && v != nil {
		if v, err = c.coerce(v); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecodingFailed, c.mediaType.Essence(), err)
		}
	}
	return v, nil
}

// NewJSONConverter creates an application/json converter. Numbers decode as
// float64 unless coerce narrows them.
func NewJSONConverter(coerce Coercion) Converter {
	return &codecConverter{
		mediaType: MustParseMediaType(MediaTypeJSON),
		marshal:   marshalJSON,
		unmarshal: func(data []byte) (any, error) {
			var v any
			err := json.Unmarshal(data, &v)
			return v, err
		},
		coerce: coerce,
	}
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// NewYAMLConverter creates an application/yaml converter.
func NewYAMLConverter(coerce Coercion) Converter {
	return &codecConverter{
		mediaType: MustParseMediaType(MediaTypeYAML),
		marshal:   yaml.Marshal,
		unmarshal: func(data []byte) (any, error) {
			var v any
			err := yaml.Unmarshal(data, &v)
			return v, err
		},
		coerce: coerce,
	}
}

// NewMsgpackConverter creates an application/msgpack converter.
func NewMsgpackConverter(coerce Coercion) Converter {
	return &codecConverter{
		mediaType: MustParseMediaType(MediaTypeMsgpack),
		marshal:   msgpack.Marshal,
		unmarshal: func(data []byte) (any, error) {
			var v any
			err := msgpack.Unmarshal(data, &v)
			return v, err
		},
		coerce: coerce,
	}
}

// NewTOMLConverter creates an application/toml converter. TOML documents are
// tables, so only map payloads can be rendered.
func NewTOMLConverter() Converter {
	return &codecConverter{
		mediaType: MustParseMediaType(MediaTypeTOML),
		marshal: func(v any) ([]byte, error) {
			table, err := asMap(v)
			if err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(table); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		unmarshal: func(data []byte) (any, error) {
			v := make(map[string]any)
			_, err := toml.Decode(string(data), &v)
			return v, err
		},
		coerce: asMap,
	}
}

// ProtobufShape selects the well-known message used on the wire.
type ProtobufShape int

const (
	// ShapeValue encodes any dynamic value as google.protobuf.Value.
	ShapeValue ProtobufShape = iota
	// ShapeStruct encodes maps as google.protobuf.Struct.
	ShapeStruct
	// ShapeList encodes slices as google.protobuf.ListValue.
	ShapeList
)

// NewProtobufConverter creates an application/x-protobuf converter for
// dynamic payloads using the structpb well-known types.
func NewProtobufConverter(shape ProtobufShape) Converter {
	return &codecConverter{
		mediaType: MustParseMediaType(MediaTypeProtobuf),
		marshal: func(v any) ([]byte, error) {
			msg, err := toProtoMessage(v, shape)
			if err != nil {
				return nil, err
			}
			return proto.Marshal(msg)
		},
		unmarshal: func(data []byte) (any, error) {
			return fromProtoBytes(data, shape)
		},
	}
}

func toProtoMessage(v any, shape ProtobufShape) (proto.Message, error) {
	dynamic, err := toDynamic(v)
	if err != nil {
		return nil, err
	}

	switch shape {
	case ShapeStruct:
		m, ok := dynamic.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("protobuf struct requires a map, got %T", v)
		}
		return structpb.NewStruct(m)
	case ShapeList:
		l, ok := dynamic.([]any)
		if !ok {
			return nil, fmt.Errorf("protobuf list requires a slice, got %T", v)
		}
		return structpb.NewList(l)
	default:
		return structpb.NewValue(dynamic)
	}
}

func fromProtoBytes(data []byte, shape ProtobufShape) (any, error) {
	switch shape {
	case ShapeStruct:
		var s structpb.Struct
		if err := proto.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s.AsMap(), nil
	case ShapeList:
		var l structpb.ListValue
		if err := proto.Unmarshal(data, &l); err != nil {
			return nil, err
		}
		return l.AsSlice(), nil
	default:
		var v structpb.Value
		if err := proto.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v.AsInterface(), nil
	}
}

// toDynamic reduces an arbitrary value to the map[string]any, []any and
// scalar shapes accepted by structpb.
func toDynamic(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
