package service

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ValueType is the declared type of an argument value.
type ValueType int

// Value types.
const (
	TypeString ValueType = iota
	TypeInteger
	TypeBoolean
	TypeFloat
)

// String returns the type name as written in service descriptions.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInteger:
		return "Integer"
	case TypeBoolean:
		return "Boolean"
	case TypeFloat:
		return "Float"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// ParseValueType parses a type name. The empty name means String.
func ParseValueType(name string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "string":
		return TypeString, nil
	case "integer", "int", "long":
		return TypeInteger, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "float", "double":
		return TypeFloat, nil
	default:
		return TypeString, fmt.Errorf("unknown value type %q", name)
	}
}

// Convert converts a raw argument into a typed value: string, int64, bool
// or float64. An empty raw value of a non-string type converts to nil.
func (t ValueType) Convert(raw string) (any, error) {
	if t == TypeString {
		return raw, nil
	}
	if raw == "" {
		return nil, nil
	}

	switch t {
	case TypeInteger:
		return cast.ToInt64E(raw)
	case TypeBoolean:
		return cast.ToBoolE(raw)
	case TypeFloat:
		return cast.ToFloat64E(raw)
	default:
		return nil, fmt.Errorf("unsupported value type %s", t)
	}
}

// Format renders a typed value as a raw argument string.
func (t ValueType) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return cast.ToStringE(value)
}
