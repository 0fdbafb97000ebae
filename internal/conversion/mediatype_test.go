package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		essence string
		params  []Param
		quality float64
	}{
		{name: "simple", input: "application/json", essence: "application/json", quality: 1},
		{name: "case folded", input: "Text/HTML", essence: "text/html", quality: 1},
		{name: "wildcard", input: "*/*", essence: "*/*", quality: 1},
		{name: "subtype wildcard", input: "text/*", essence: "text/*", quality: 1},
		{
			name: "parameters keep order", input: "text/plain; charset=UTF-8; format=flowed",
			essence: "text/plain",
			params:  []Param{{Name: "charset", Value: "UTF-8"}, {Name: "format", Value: "flowed"}},
			quality: 1,
		},
		{
			name: "quality is separate", input: "text/plain;q=0.5;charset=utf-8",
			essence: "text/plain", params: []Param{{Name: "charset", Value: "utf-8"}}, quality: 0.5,
		},
		{
			name: "quoted value", input: `text/plain; title="a b"`,
			essence: "text/plain", params: []Param{{Name: "title", Value: "a b"}}, quality: 1,
		},
		{name: "surrounding spaces", input: "  application/yaml ; q=0 ", essence: "application/yaml", quality: 0},
		{name: "empty parameter ignored", input: "application/json;", essence: "application/json", quality: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mt, err := ParseMediaType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.essence, mt.Essence())
			assert.Equal(t, tt.params, mt.Params)
			assert.Equal(t, tt.quality, mt.Quality)
		})
	}
}

func TestParseMediaType_Invalid(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"text",
		"/plain",
		"text/",
		"*/plain",
		"text/plain/extra",
		"text/plain; q=2",
		"text/plain; q=-0.1",
		"text/plain; q=high",
		"text/plain; =x",
		"text/plain; flag",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, err := ParseMediaType(input)
			assert.Error(t, err)
		})
	}
}

func TestParseMediaTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{name: "empty header accepts anything", header: "", want: []string{"*/*"}},
		{name: "blank header accepts anything", header: "  ", want: []string{"*/*"}},
		{
			name: "order of appearance", header: "text/*;q=1,application/json;q=0.5",
			want: []string{"text/*", "application/json; q=0.5"},
		},
		{
			name: "malformed entries skipped", header: "bogus, application/json,,text/plain;q=9",
			want: []string{"application/json"},
		},
		{name: "only malformed entries", header: "garbage, also/bad/x", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseMediaTypes(tt.header)
			rendered := make([]string, len(got))
			for i, mt := range got {
				rendered[i] = mt.String()
			}
			assert.Equal(t, tt.want, rendered)
		})
	}
}

func TestSortByQuality(t *testing.T) {
	t.Parallel()

	types := ParseMediaTypes("a/1;q=0.5, a/2, a/3;q=0.5, a/4;q=0.9, a/5")
	SortByQuality(types)

	essences := make([]string, len(types))
	for i, mt := range types {
		essences[i] = mt.Essence()
	}
	assert.Equal(t, []string{"a/2", "a/5", "a/4", "a/1", "a/3"}, essences)
}

func TestMediaType_IsCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"application/json", "application/json", true},
		{"application/json", "application/yaml", false},
		{"application/json", "text/json", false},
		{"application/*", "application/json", true},
		{"application/json", "application/*", true},
		{"text/*", "application/json", false},
		{"*/*", "image/png", true},
		{"image/png", "*/*", true},
		{"text/plain; charset=latin1", "text/plain", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			t.Parallel()

			a := MustParseMediaType(tt.a)
			b := MustParseMediaType(tt.b)
			assert.Equal(t, tt.want, a.IsCompatible(b))
			assert.Equal(t, tt.want, b.IsCompatible(a))
		})
	}
}

func TestMediaType_Params(t *testing.T) {
	t.Parallel()

	mt := MustParseMediaType("text/plain; charset=utf-8")

	v, ok := mt.Param("CHARSET")
	require.True(t, ok)
	assert.Equal(t, "utf-8", v)

	_, ok = mt.Param("format")
	assert.False(t, ok)

	replaced := mt.WithParam("charset", "latin1")
	assert.Equal(t, "text/plain; charset=latin1", replaced.String())
	assert.Equal(t, "text/plain; charset=utf-8", mt.String(), "original is unchanged")

	added := mt.WithParam("format", "flowed")
	assert.Equal(t, "text/plain; charset=utf-8; format=flowed", added.String())

	assert.Equal(t, "text/plain", added.WithoutParams().String())
}

func TestMediaType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "*/*", AnyMediaType().String())
	assert.Equal(t, `text/plain; title="a b"`, NewMediaType("text", "plain", Param{Name: "title", Value: "a b"}).String())
	assert.Equal(t, "application/json; q=0.25", MustParseMediaType("application/json;q=0.25").String())
}

func TestMustParseMediaType_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParseMediaType("nonsense") })
}

func TestAnyMediaType_IsFreshValue(t *testing.T) {
	t.Parallel()

	a := AnyMediaType()
	a.Params = append(a.Params, Param{Name: "x", Value: "y"})

	assert.Empty(t, AnyMediaType().Params)
}
