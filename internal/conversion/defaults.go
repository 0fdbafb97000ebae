package conversion

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/vyrodovalexey/avarest/internal/service"
)

// Built-in entity type names.
const (
	EntityString    = "String"
	EntityInteger   = "Integer"
	EntityLong      = "Long"
	EntityBoolean   = "Boolean"
	EntityFloat     = "Float"
	EntityDouble    = "Double"
	EntityByte      = "Byte"
	EntityCharacter = "Character"
	EntityMap       = "Map"
	EntityList      = "List"
)

// scalarEntities maps scalar entity names to their value types.
var scalarEntities = []struct {
	name      string
	valueType service.ValueType
	coerce    Coercion
}{
	{EntityString, service.TypeString, func(v any) (any, error) { return cast.ToStringE(v) }},
	{EntityInteger, service.TypeInteger, func(v any) (any, error) { return cast.ToInt64E(v) }},
	{EntityLong, service.TypeInteger, func(v any) (any, error) { return cast.ToInt64E(v) }},
	{EntityBoolean, service.TypeBoolean, func(v any) (any, error) { return cast.ToBoolE(v) }},
	{EntityFloat, service.TypeFloat, func(v any) (any, error) { return cast.ToFloat64E(v) }},
	{EntityDouble, service.TypeFloat, func(v any) (any, error) { return cast.ToFloat64E(v) }},
}

// NewDefaultService creates a registry with the built-in converters:
//
//	String, Integer, Long, Boolean, Float, Double: text/plain, application/json
//	Byte, Character: text/plain
//	Map: application/json, application/yaml, application/msgpack,
//	     application/toml, application/x-protobuf
//	List: application/json, application/yaml, application/msgpack,
//	      application/x-protobuf
//	Error: text/plain, application/json
//
// Any other entity type falls back to JSON, YAML, MessagePack and protobuf.
func NewDefaultService(opts ...ServiceOption) *Service {
	s := NewService(opts...)

	for _, e := range scalarEntities {
		s.Register(e.name, NewTextConverter(e.valueType))
		s.Register(e.name, NewJSONConverter(e.coerce))
	}
	s.Register(EntityByte, NewByteTextConverter())
	s.Register(EntityCharacter, NewCharacterTextConverter())

	s.Register(EntityMap, NewJSONConverter(asMap))
	s.Register(EntityMap, NewYAMLConverter(asMap))
	s.Register(EntityMap, NewMsgpackConverter(asMap))
	s.Register(EntityMap, NewTOMLConverter())
	s.Register(EntityMap, NewProtobufConverter(ShapeStruct))

	s.Register(EntityList, NewJSONConverter(asList))
	s.Register(EntityList, NewYAMLConverter(asList))
	s.Register(EntityList, NewMsgpackConverter(asList))
	s.Register(EntityList, NewProtobufConverter(ShapeList))

	s.Register(ErrorEntity, NewErrorTextConverter())
	s.Register(ErrorEntity, NewErrorJSONConverter())

	s.RegisterFallback(NewJSONConverter(nil))
	s.RegisterFallback(NewYAMLConverter(nil))
	s.RegisterFallback(NewMsgpackConverter(nil))
	s.RegisterFallback(NewProtobufConverter(ShapeValue))

	return s
}

func asMap(v any) (any, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fmt.Errorf("expected an object: %w", err)
	}
	return m, nil
}

func asList(v any) (any, error) {
	l, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("expected a list: %w", err)
	}
	return l, nil
}
