package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avarest/internal/util"
)

func mustMethod(t *testing.T, action, signature string, args map[string]ArgumentSpec) *Method {
	t.Helper()

	elements, err := ParseSignature(signature, args)
	require.NoError(t, err)
	m, err := NewMethod(action, "M", elements)
	require.NoError(t, err)
	return m
}

func TestBuildURI(t *testing.T) {
	t.Parallel()

	regexArgs := map[string]ArgumentSpec{"path": {Pattern: `.*`}}

	tests := []struct {
		name      string
		signature string
		specs     map[string]ArgumentSpec
		args      map[string]string
		want      string
	}{
		{
			name:      "root",
			signature: "/",
			want:      "/",
		},
		{
			name:      "variable escaping",
			signature: "/users/:id",
			args:      map[string]string{"id": "a/b c;d?e=f+g&h"},
			want:      "/users/a%2Fb%20c%3Bd%3Fe=f+g&h",
		},
		{
			name:      "optional matrix omitted when absent",
			signature: "/users/:id/friends;limit=10;offset=0",
			args:      map[string]string{"id": "7"},
			want:      "/users/7/friends",
		},
		{
			name:      "optional matrix omitted when default",
			signature: "/users/:id/friends;limit=10;offset=0",
			args:      map[string]string{"id": "7", "limit": "10", "offset": "5"},
			want:      "/users/7/friends;offset=5",
		},
		{
			name:      "required matrix",
			signature: "/db/:ns/:coll;version?flag",
			args:      map[string]string{"ns": "n", "coll": "c", "version": "", "flag": "x y"},
			want:      "/db/n/c;version=?flag=x+y",
		},
		{
			name:      "query escaping",
			signature: "/db/:ns/:coll?filter&sort=asc",
			args:      map[string]string{"ns": "orders", "coll": "items", "filter": "a b&c=d/e;f", "sort": "desc"},
			want:      "/db/orders/items?filter=a+b%26c%3Dd%2Fe%3Bf&sort=desc",
		},
		{
			name:      "optional query with decoded default",
			signature: "/db/:ns/db_all;from=0;limit=?name=Franz+Kafka",
			args:      map[string]string{"ns": "x", "name": "Franz Kafka", "from": "3"},
			want:      "/db/x/db_all;from=3",
		},
		{
			name:      "trailing regex keeps separators",
			signature: "/files/*path",
			specs:     regexArgs,
			args:      map[string]string{"path": "docs/read me.txt"},
			want:      "/files/docs/read%20me.txt",
		},
		{
			name:      "trailing regex may be empty",
			signature: "/files/*path",
			specs:     regexArgs,
			args:      map[string]string{"path": ""},
			want:      "/files/",
		},
		{
			name:      "inner regex escapes separators",
			signature: "/hello/*world/demo",
			specs:     map[string]ArgumentSpec{"world": {Pattern: `.+`}},
			args:      map[string]string{"world": "a/b"},
			want:      "/hello/a%2Fb/demo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := mustMethod(t, "GET", tt.signature, tt.specs)
			got, err := BuildURI(m, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			viaMethod, err := m.CreateURI(tt.args)
			require.NoError(t, err)
			assert.Equal(t, got, viaMethod)
		})
	}
}

func TestBuildURI_MissingArgument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		signature string
		args      map[string]string
	}{
		{name: "missing variable", signature: "/users/:id"},
		{name: "empty variable", signature: "/users/:id", args: map[string]string{"id": ""}},
		{name: "missing regex", signature: "/files/*path"},
		{
			name: "empty inner regex", signature: "/files/*dir/:name",
			args: map[string]string{"dir": "", "name": "a.txt"},
		},
		{name: "missing matrix", signature: "/users/:id;rev", args: map[string]string{"id": "1"}},
		{name: "missing query", signature: "/users/:id?q", args: map[string]string{"id": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := mustMethod(t, "GET", tt.signature, nil)
			_, err := BuildURI(m, tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)
			assert.Contains(t, err.Error(), "missing value for required")
		})
	}
}
