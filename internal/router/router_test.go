package router

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

func loadGroups(t *testing.T) []service.MethodGroup {
	t.Helper()

	groups, err := service.LoadDocument("testdata/service.yaml")
	require.NoError(t, err)
	return groups
}

func newTestRouter(t *testing.T) (*Router, []service.MethodGroup) {
	t.Helper()

	groups := loadGroups(t)
	r := New()
	for _, g := range groups {
		require.NoError(t, r.RegisterAll(g.Methods))
	}
	r.Start()
	return r, groups
}

func findMethod(t *testing.T, r *Router, name string) *service.Method {
	t.Helper()

	for _, m := range r.Methods() {
		if m.Name() == name {
			return m
		}
	}
	t.Fatalf("method %s not registered", name)
	return nil
}

// sampleArguments generates a value for every argument of m, skipping
// optional parameters unless withOptional is set.
func sampleArguments(m *service.Method, withOptional bool) map[string]string {
	args := make(map[string]string)
	value := 1
	for _, el := range m.Signature() {
		switch {
		case el.Kind() == service.KindPath:
		case el.Kind() == service.KindRegex:
			if el.Pattern().String() == `\.txt$` {
				args[el.Name()] = "world.txt"
			} else {
				args[el.Name()] = "demo"
			}
		case el.IsOptional() && !withOptional:
		default:
			value++
			switch el.ValueType() {
			case service.TypeInteger:
				args[el.Name()] = strconv.Itoa(value)
			case service.TypeBoolean:
				args[el.Name()] = strconv.FormatBool(value%2 == 1)
			default:
				args[el.Name()] = "value" + strconv.Itoa(value)
			}
		}
	}
	return args
}

func assertDispatch(t *testing.T, r *Router, expected *service.Method, verb, target string, args map[string]string) {
	t.Helper()

	match, err := r.DispatchTarget(verb, target)
	if expected == nil {
		assert.Error(t, err, "%s %s should not match", verb, target)
		assert.Nil(t, match)
		return
	}

	require.NoError(t, err, "%s %s", verb, target)
	assert.Same(t, expected, match.Route.Method(), "%s was mismatched", target)
	for name, want := range args {
		assert.Equal(t, want, match.Arguments[name], "argument %s of %s", name, target)
	}
}

func TestRouter_AllMethodsRoundTrip(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for _, m := range r.Methods() {
		args := sampleArguments(m, true)
		uri, err := m.CreateURI(args)
		require.NoError(t, err, m.String())

		assertDispatch(t, r, m, m.Action(), uri, args)
	}
}

func TestRouter_AllMethodsWithoutOptionalParams(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for _, m := range r.Methods() {
		args := sampleArguments(m, false)
		uri, err := m.CreateURI(args)
		require.NoError(t, err, m.String())

		match, err := r.DispatchTarget(m.Action(), uri)
		require.NoError(t, err, uri)
		assert.Same(t, m, match.Route.Method(), uri)

		for _, el := range m.Arguments() {
			if el.IsOptional() {
				assert.Equal(t, el.DefaultValue(), match.Arguments[el.Name()], "default of %s in %s", el.Name(), uri)
			} else {
				assert.Equal(t, args[el.Name()], match.Arguments[el.Name()])
			}
		}
	}
}

func TestRouter_HeadAndOptionsRoutedAsGet(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	root := r.Methods()[0]

	assertDispatch(t, r, root, "HEAD", "/", nil)
	assertDispatch(t, r, root, "OPTIONS", "/", nil)
	assertDispatch(t, r, root, "GET", "/", nil)
}

func TestRouter_VerbsAreCaseSensitive(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	_, err := r.DispatchTarget("get", "/test")
	assert.True(t, errors.Is(err, util.ErrMethodNotAllowed))
}

func TestRouter_LiteralBeatsVariable(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	assertDispatch(t, r, findMethod(t, r, "B1"), "GET", "/users/me", nil)
	assertDispatch(t, r, findMethod(t, r, "B2"), "GET", "/users/42", map[string]string{"id": "42"})
}

func TestRouter_WildcardRoutedOnMultipleDepths(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	method := findMethod(t, r, "C5")

	assertDispatch(t, r, method, "PUT", "/wildcard/test1?b=43", map[string]string{"remaining": "test1"})
	assertDispatch(t, r, method, "PUT", "/wildcard/test1/test2?b=22", map[string]string{"remaining": "test1/test2"})
	assertDispatch(t, r, method, "PUT", "/wildcard/test1?b=13", map[string]string{"remaining": "test1", "b": "13"})
	assertDispatch(t, r, nil, "PUT", "/wildcard/test1;a=b?b=83", nil)
	assertDispatch(t, r, method, "PUT", "/wildcard/te%20st1/tes%3ft/te&st?a=b&b=98",
		map[string]string{"remaining": "te st1/tes?t/te&st"})
}

func TestRouter_DynamicRouteIsAddedToAllDepths(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	method := findMethod(t, r, "C5")

	for i := 1; i < 20; i++ {
		contains := false
		for _, route := range r.Routes(i) {
			if route.Method() == method {
				contains = true
			}
		}
		assert.Equal(t, i > 1, contains, "routes for %d segments contain wildcard route", i)
	}
}

func TestRouter_RegexRouted(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	expected1 := findMethod(t, r, "I1")
	expected2 := findMethod(t, r, "I2")

	tests := []struct {
		target   string
		expected *service.Method
		world    string
	}{
		{target: "/hello/world.txt", expected: expected1, world: "world.txt"},
		{target: "/hello/world.txt;a=b?b=83", expected: expected1, world: "world.txt"},
		{target: "/hello/world.txt.tar"},
		{target: "/hello/.txtworld.txt", expected: expected1, world: ".txtworld.txt"},
		{target: "/hello/deeeeeeeeemo/demo", expected: expected2, world: "deeeeeeeeemo"},
		{target: "/hello/dododododo/demo;a=b?b=83", expected: expected2, world: "dododododo"},
		{target: "/hello/world.txt.tar/demo"},
		{target: "/hello//////demo"},
		{target: "/hello/d....o/demo", expected: expected2, world: "d....o"},
		{target: "/hello/demo"},
		{target: "/hello/de/mo/demo"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			if tt.expected == nil {
				assertDispatch(t, r, nil, "GET", tt.target, nil)
				return
			}
			assertDispatch(t, r, tt.expected, "GET", tt.target, map[string]string{"world": tt.world})
		})
	}
}

func TestRouter_URIEncoding(t *testing.T) {
	t.Parallel()

	r, groups := newTestRouter(t)
	method := groups[4].Methods[0]
	require.Equal(t, "E1", method.Name())

	args := map[string]string{
		"ns":   "käse+=&br%20ot ;g=",
		"name": "käse+=&br%20ot /;g=",
	}

	uri, err := method.CreateURI(args)
	require.NoError(t, err)

	ns := uri[len("/db/"):strings.Index(uri, "/db_all")]
	name := uri[strings.Index(uri, "?name=")+len("?name="):]

	for _, seq := range []string{"ä", " ", "/", ";", "r%20"} {
		assert.NotContains(t, ns, seq, "path")
		assert.NotContains(t, name, seq, "query")
	}
	for _, seq := range []string{"=", "e+", "&"} {
		assert.Contains(t, ns, seq, "path")
		assert.NotContains(t, name, seq, "query")
	}

	assertDispatch(t, r, method, method.Action(), uri, args)
}

func TestRouter_IllegalURIEncoding(t *testing.T) {
	t.Parallel()

	r, groups := newTestRouter(t)
	method := groups[0].Methods[2]
	require.Equal(t, "A2", method.Name())

	uri, err := method.CreateURI(nil)
	require.NoError(t, err)

	tests := []string{
		uri + "/loginR%06%92%7F'",
		"/test/%ZZ",
		"/test/%",
		"/test?q=%zz",
		"/test;m=%C3",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			t.Parallel()

			match, err := r.DispatchTarget("GET", target)
			assert.Nil(t, match)

			var decErr *util.DecodingError
			require.ErrorAs(t, err, &decErr)
			assert.False(t, errors.Is(err, util.ErrNotFound))
			assert.Equal(t, 400, util.StatusCode(err))
		})
	}
}

func TestRouter_MatrixBeforeQuery(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	method := findMethod(t, r, "C5")

	_, err := r.DispatchTarget("PUT", "/wildcard/a;unknown=x?b=1")
	assert.True(t, errors.Is(err, util.ErrNotFound))

	assertDispatch(t, r, method, "PUT", "/wildcard/a?b=1", map[string]string{"b": "1"})
}

func TestRouter_MatrixWithoutValue(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	method := findMethod(t, r, "E6")

	assertDispatch(t, r, method, "GET", "/db/a/b;version?flag=1",
		map[string]string{"version": "", "flag": "1"})
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	match, err := r.DispatchTarget("DELETE", "/db/orders/items?filter=open")
	assert.Nil(t, match)

	var notAllowed *util.MethodNotAllowedError
	require.ErrorAs(t, err, &notAllowed)
	assert.Equal(t, []string{"GET", "POST"}, notAllowed.Allowed)
	assert.Equal(t, 405, util.StatusCode(err))
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for _, target := range []string{"/missing", "/users", "/users/1/2/3/4/5/6/7/8/9", "/users/"} {
		_, err := r.DispatchTarget("GET", target)
		var notFound *util.RouteNotFoundError
		assert.ErrorAs(t, err, &notFound, target)
	}
}

func TestRouter_GetMethods(t *testing.T) {
	t.Parallel()

	r, groups := newTestRouter(t)

	flat := service.Methods(groups)
	assert.Equal(t, flat, r.Methods())
	assert.Len(t, r.Methods(), 16)
}

func TestRouter_Unregister(t *testing.T) {
	t.Parallel()

	r, groups := newTestRouter(t)
	size := len(r.Methods())
	root := groups[0].Methods[0]

	assertDispatch(t, r, root, "GET", "/", nil)

	r.Stop()
	require.NoError(t, r.Unregister(root))
	r.Start()

	assert.Len(t, r.Methods(), size-1)
	assert.NotContains(t, r.Methods(), root)

	// PUT / is still registered
	_, err := r.DispatchTarget("GET", "/")
	assert.True(t, errors.Is(err, util.ErrMethodNotAllowed))

	r.Stop()
	require.NoError(t, r.Unregister(root), "unknown methods are ignored")
	assert.Len(t, r.Methods(), size-1)
}

func TestRouter_UnregisterAll(t *testing.T) {
	t.Parallel()

	r, groups := newTestRouter(t)
	root := groups[0].Methods[0]
	assertDispatch(t, r, root, "GET", "/", nil)

	r.Stop()
	require.NoError(t, r.UnregisterAll(r.Methods()))
	r.Start()

	assert.Empty(t, r.Methods())
	_, err := r.DispatchTarget("GET", "/")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestRouter_Clear(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	r.Stop()
	require.NoError(t, r.Clear())
	r.Start()

	assert.Empty(t, r.Methods())
	assert.Empty(t, r.Routes(1))
	assert.Empty(t, r.Routes(50))

	_, err := r.DispatchTarget("GET", "/")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestRouter_MutationWhileStarted(t *testing.T) {
	t.Parallel()

	r, groups := newTestRouter(t)
	require.True(t, r.IsStarted())

	m := groups[0].Methods[0]
	size := len(r.Methods())

	operations := map[string]func() error{
		"register":       func() error { return r.Register(m) },
		"register all":   func() error { return r.RegisterAll([]*service.Method{m}) },
		"unregister":     func() error { return r.Unregister(m) },
		"unregister all": func() error { return r.UnregisterAll([]*service.Method{m}) },
		"clear":          func() error { return r.Clear() },
	}
	for name, op := range operations {
		err := op()
		var cfgErr *util.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr, name)
		assert.True(t, errors.Is(err, util.ErrConfigInvalid), name)
	}
	assert.Len(t, r.Methods(), size)

	r.Stop()
	assert.False(t, r.IsStarted())
	extra, err := service.NewMethod("GET", "extra", []service.PathElement{service.Literal("extra")})
	require.NoError(t, err)
	require.NoError(t, r.Register(extra))
	r.Start()

	assertDispatch(t, r, extra, "GET", "/extra", nil)
}

func TestRouter_StartStopIdempotent(t *testing.T) {
	t.Parallel()

	r := New()
	assert.False(t, r.IsStarted())
	r.Start()
	r.Start()
	assert.True(t, r.IsStarted())
	r.Stop()
	r.Stop()
	assert.False(t, r.IsStarted())
}

func TestRouter_RegisterAllIsAtomic(t *testing.T) {
	t.Parallel()

	handlers := NewHandlers()
	require.NoError(t, handlers.RegisterFunc("known", func(context.Context, *Request, *Response) error {
		return nil
	}))

	r := New(WithResolver(handlers))

	good, err := service.NewMethod("GET", "good", []service.PathElement{service.Literal("a")},
		service.WithTarget("known"))
	require.NoError(t, err)
	bad, err := service.NewMethod("GET", "bad", []service.PathElement{service.Literal("b")},
		service.WithTarget("unknown"))
	require.NoError(t, err)

	err = r.RegisterAll([]*service.Method{good, bad})
	assert.True(t, errors.Is(err, util.ErrConfigInvalid))
	assert.Empty(t, r.Methods())

	require.NoError(t, r.Register(good))
	r.Start()

	match, err := r.DispatchTarget("GET", "/a")
	require.NoError(t, err)
	assert.NotNil(t, match.Route.Handler())

	assert.Error(t, New().Register(nil))
}

func TestRouter_ConcurrentDispatch(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	methods := r.Methods()

	var wg sync.WaitGroup
	errs := make(chan error, 8*len(methods))
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, m := range methods {
				uri, err := m.CreateURI(sampleArguments(m, true))
				if err != nil {
					errs <- err
					continue
				}
				match, err := r.DispatchTarget(m.Action(), uri)
				if err != nil {
					errs <- err
					continue
				}
				if match.Route.Method() != m {
					errs <- errors.New("mismatched " + uri)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestCompareRoutes(t *testing.T) {
	t.Parallel()

	mustRoute := func(sig ...service.PathElement) *Route {
		m, err := service.NewMethod("GET", "m", sig)
		require.NoError(t, err)
		return newRoute(m, nil)
	}

	re := service.Regex("rest", regexp.MustCompile(".*"))
	literal := mustRoute(service.Literal("users"), service.Literal("me"))
	variable := mustRoute(service.Literal("users"), service.Variable("id", service.TypeString))
	regex := mustRoute(service.Literal("users"), re)
	required := mustRoute(service.Literal("users"), service.Variable("id", service.TypeString),
		service.Query("q", service.TypeString))
	optional := mustRoute(service.Literal("users"), service.Variable("id", service.TypeString),
		service.OptionalQuery("q", service.TypeString, ""))

	assert.Positive(t, compareRoutes(literal, variable))
	assert.Negative(t, compareRoutes(variable, literal))
	assert.Positive(t, compareRoutes(literal, regex))
	assert.Positive(t, compareRoutes(variable, regex))
	assert.Negative(t, compareRoutes(regex, variable))
	assert.Positive(t, compareRoutes(required, optional))
	assert.Positive(t, compareRoutes(required, variable))
	assert.Zero(t, compareRoutes(optional, variable))
	assert.Zero(t, compareRoutes(variable, variable))
}

func TestInsertRoute_StableForTies(t *testing.T) {
	t.Parallel()

	var bucket []*Route
	routes := make([]*Route, 3)
	for i := range routes {
		m, err := service.NewMethod("GET", strconv.Itoa(i),
			[]service.PathElement{service.Variable("v", service.TypeString)})
		require.NoError(t, err)
		routes[i] = newRoute(m, nil)
		bucket = insertRoute(bucket, routes[i])
	}
	assert.Equal(t, routes, bucket)

	m, err := service.NewMethod("GET", "literal", []service.PathElement{service.Literal("x")})
	require.NoError(t, err)
	literal := newRoute(m, nil)
	bucket = insertRoute(bucket, literal)
	assert.Same(t, literal, bucket[0])
}
