package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ElementKind
		want string
	}{
		{KindPath, "path"},
		{KindVariable, "variable"},
		{KindMatrix, "matrix"},
		{KindQuery, "query"},
		{KindRegex, "regex"},
		{ElementKind(42), "ElementKind(42)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestElementKind_Classification(t *testing.T) {
	t.Parallel()

	assert.True(t, KindPath.IsPathPosition())
	assert.True(t, KindVariable.IsPathPosition())
	assert.True(t, KindRegex.IsPathPosition())
	assert.False(t, KindMatrix.IsPathPosition())
	assert.False(t, KindQuery.IsPathPosition())

	assert.True(t, KindMatrix.IsParameter())
	assert.True(t, KindQuery.IsParameter())
	assert.False(t, KindVariable.IsParameter())
}

func TestPathElement_Constructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		el       PathElement
		kind     ElementKind
		optional bool
		def      string
		rendered string
	}{
		{name: "literal", el: Literal("users"), kind: KindPath, rendered: "/users"},
		{name: "variable", el: Variable("id", TypeInteger), kind: KindVariable, rendered: "/:id"},
		{name: "regex", el: Regex("path", regexp.MustCompile(`.*`)), kind: KindRegex, rendered: "/*path"},
		{name: "matrix", el: Matrix("version", TypeString), kind: KindMatrix, rendered: ";version"},
		{
			name: "optional matrix", el: OptionalMatrix("limit", TypeInteger, "10"),
			kind: KindMatrix, optional: true, def: "10", rendered: ";limit=10",
		},
		{name: "query", el: Query("filter", TypeString), kind: KindQuery, rendered: "?filter"},
		{
			name: "optional query", el: OptionalQuery("sort", TypeString, "asc"),
			kind: KindQuery, optional: true, def: "asc", rendered: "?sort=asc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.kind, tt.el.Kind())
			assert.Equal(t, tt.optional, tt.el.IsOptional())
			assert.Equal(t, tt.def, tt.el.DefaultValue())
			assert.Equal(t, tt.rendered, tt.el.String())
		})
	}
}

func TestPathElement_WithDescription(t *testing.T) {
	t.Parallel()

	base := Variable("id", TypeInteger)
	described := base.WithDescription("user id")

	assert.Equal(t, "user id", described.Description())
	assert.Empty(t, base.Description())
	assert.Equal(t, TypeInteger, described.ValueType())
	assert.Equal(t, "id", described.Name())
}

func TestPathElement_MatchString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		value   string
		want    bool
	}{
		{name: "suffix anchored pattern", pattern: `\.txt$`, value: "notes.txt", want: true},
		{name: "suffix in nested value", pattern: `\.txt$`, value: "a/b/notes.txt", want: true},
		{name: "suffix missing", pattern: `\.txt$`, value: "notes.txt.bak", want: false},
		{name: "match must reach the end", pattern: `d.*o`, value: "demos", want: false},
		{name: "match may start anywhere", pattern: `d.*o`, value: "xdemo", want: true},
		{name: "match all", pattern: `.*`, value: "", want: true},
		{name: "alternation is grouped", pattern: `a|b`, value: "ba", want: true},
		{name: "alternation needs the end", pattern: `a|b`, value: "ac", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			el := Regex("v", regexp.MustCompile(tt.pattern))
			assert.Equal(t, tt.want, el.MatchString(tt.value))
			assert.Equal(t, tt.pattern, el.Pattern().String())
		})
	}
}

func TestPathElement_MatchString_NonRegex(t *testing.T) {
	t.Parallel()

	assert.False(t, Variable("id", TypeString).MatchString("x"))
	assert.Nil(t, Literal("x").Pattern())
}

func TestValueType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "String", TypeString.String())
	assert.Equal(t, "Integer", TypeInteger.String())
	assert.Equal(t, "Boolean", TypeBoolean.String())
	assert.Equal(t, "Float", TypeFloat.String())
	assert.Equal(t, "ValueType(9)", ValueType(9).String())
}

func TestParseValueType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    ValueType
		wantErr bool
	}{
		{input: "", want: TypeString},
		{input: "String", want: TypeString},
		{input: "integer", want: TypeInteger},
		{input: "Long", want: TypeInteger},
		{input: "int", want: TypeInteger},
		{input: "Boolean", want: TypeBoolean},
		{input: "bool", want: TypeBoolean},
		{input: "Double", want: TypeFloat},
		{input: " float ", want: TypeFloat},
		{input: "Date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseValueType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueType_Convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vt      ValueType
		raw     string
		want    any
		wantErr bool
	}{
		{name: "string kept", vt: TypeString, raw: "a b", want: "a b"},
		{name: "empty string kept", vt: TypeString, raw: "", want: ""},
		{name: "integer", vt: TypeInteger, raw: "42", want: int64(42)},
		{name: "negative integer", vt: TypeInteger, raw: "-7", want: int64(-7)},
		{name: "empty integer", vt: TypeInteger, raw: "", want: nil},
		{name: "invalid integer", vt: TypeInteger, raw: "forty", wantErr: true},
		{name: "boolean true", vt: TypeBoolean, raw: "true", want: true},
		{name: "boolean false", vt: TypeBoolean, raw: "false", want: false},
		{name: "invalid boolean", vt: TypeBoolean, raw: "maybe", wantErr: true},
		{name: "float", vt: TypeFloat, raw: "1.5", want: 1.5},
		{name: "invalid float", vt: TypeFloat, raw: "1.5.2", wantErr: true},
		{name: "unknown type", vt: ValueType(9), raw: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.vt.Convert(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueType_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		vt    ValueType
		value any
		want  string
	}{
		{TypeString, "x", "x"},
		{TypeInteger, int64(42), "42"},
		{TypeInteger, 7, "7"},
		{TypeBoolean, true, "true"},
		{TypeFloat, 1.5, "1.5"},
		{TypeInteger, nil, ""},
	}

	for _, tt := range tests {
		got, err := tt.vt.Format(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
