package dispatch_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/interceptor/api/dispatch"
	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/pkg/httpcontext"
)

type recordingForwarder struct {
	paths []string
}

func (f *recordingForwarder) Forward(ctx *fasthttp.RequestCtx) {
	f.paths = append(f.paths, string(ctx.RequestURI()))
	ctx.SetStatusCode(http.StatusTeapot)
	ctx.SetBodyString("upstream")
}

func echo(name string) dispatch.HandlerFunc {
	return func(_ context.Context, req dispatch.Request) (dispatch.Result, error) {
		return dispatch.OK(map[string]any{"route": name, "params": req.Params}), nil
	}
}

func do(h fasthttp.RequestHandler, method, uri, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	h(ctx)
	return ctx
}

func newDispatcher(t *testing.T, routes ...dispatch.Route) (*dispatch.Dispatcher, *recordingForwarder) {
	t.Helper()
	table, err := dispatch.NewTable(routes...)
	require.NoError(t, err)
	fwd := &recordingForwarder{}
	return dispatch.New("/api/", table, fwd, httpcontext.NewAdapter(0), nil), fwd
}

func TestNewTableRejectsBadRoutes(t *testing.T) {
	ok := echo("x")
	tests := []struct {
		name   string
		routes []dispatch.Route
	}{
		{"empty pattern", []dispatch.Route{{Method: "GET", Pattern: "/", Handler: ok}}},
		{"empty parameter", []dispatch.Route{{Method: "GET", Pattern: "customers/{}", Handler: ok}}},
		{"duplicate parameter", []dispatch.Route{{Method: "GET", Pattern: "a/{id}/b/{id}", Handler: ok}}},
		{"malformed segment", []dispatch.Route{{Method: "GET", Pattern: "a/x{id}", Handler: ok}}},
		{"missing handler", []dispatch.Route{{Method: "GET", Pattern: "a"}}},
		{"same shape", []dispatch.Route{
			{Method: "GET", Pattern: "customers/{id}", Handler: ok},
			{Method: "GET", Pattern: "customers/{cid}", Handler: ok},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dispatch.NewTable(tt.routes...)
			assert.Error(t, err)
		})
	}
}

func TestTableMatch(t *testing.T) {
	table := dispatch.MustTable(
		dispatch.Route{Method: "GET", Pattern: "customers", Handler: echo("list")},
		dispatch.Route{Method: "POST", Pattern: "customers", Handler: echo("create")},
		dispatch.Route{Method: "GET", Pattern: "customers/{id}", Handler: echo("get")},
		dispatch.Route{Method: "POST", Pattern: "customers/{id}/quotes/{qid}/accept", Handler: echo("accept")},
	)

	tests := []struct {
		method string
		path   string
		name   string
		params dispatch.Params
	}{
		{"GET", "customers", "GET customers", nil},
		{"POST", "customers", "POST customers", nil},
		{"GET", "customers/cust7", "GET customers/{}", dispatch.Params{"id": "cust7"}},
		{"POST", "customers/cust1/quotes/quote2/accept", "POST customers/{}/quotes/{}/accept", dispatch.Params{"id": "cust1", "qid": "quote2"}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			route, params, ok := table.Match(tt.method, dispatch.Split(tt.path))
			require.True(t, ok)
			assert.Equal(t, tt.name, route.Name)
			assert.Equal(t, tt.params, params)
		})
	}

	for _, miss := range []struct{ method, path string }{
		{"PUT", "customers"},
		{"GET", "customers/cust1/quotes"},
		{"GET", "customers/cust1/quotes/quote2/accept"},
		{"POST", "customers/cust1/quotes/quote2/reject"},
	} {
		_, _, ok := table.Match(miss.method, dispatch.Split(miss.path))
		assert.False(t, ok, "%s %s", miss.method, miss.path)
	}
}

func TestSplitDropsEmptySegments(t *testing.T) {
	assert.Equal(t, []string{"customers", "cust1"}, dispatch.Split("//customers///cust1/"))
	assert.Empty(t, dispatch.Split("/"))
}

func TestDispatcherPassThrough(t *testing.T) {
	d, fwd := newDispatcher(t, dispatch.Route{Method: "GET", Pattern: "customers", Handler: echo("list")})

	for _, tc := range []struct{ method, uri string }{
		{"GET", "/index.html"},
		{"GET", "/apiary/customers"},
		{"GET", "/api/unknown?x=1"},
		{"DELETE", "/api/customers"},
		{"GET", "/api"},
	} {
		ctx := do(d.Handle, tc.method, tc.uri, "")
		assert.Equal(t, http.StatusTeapot, ctx.Response.StatusCode(), tc.uri)
		assert.Equal(t, "upstream", string(ctx.Response.Body()))
		assert.Empty(t, ctx.Response.Header.Peek(dispatch.ServedByHeader))
	}
	assert.Equal(t, []string{"/index.html", "/apiary/customers", "/api/unknown?x=1", "/api/customers", "/api"}, fwd.paths)
}

func TestDispatcherServesLocally(t *testing.T) {
	d, fwd := newDispatcher(t, dispatch.Route{Method: "GET", Pattern: "customers/{id}", Handler: echo("get")})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/api/customers/cust3")
	ctx.Request.Header.Set(httpcontext.RequestIDHeader, "req-42")
	d.Handle(ctx)

	assert.Empty(t, fwd.paths)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "local", string(ctx.Response.Header.Peek(dispatch.ServedByHeader)))
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek(httpcontext.RequestIDHeader)))
	assert.JSONEq(t, `{"route":"get","params":{"id":"cust3"}}`, string(ctx.Response.Body()))
}

func TestDispatcherErrorMapping(t *testing.T) {
	fail := func(err error) dispatch.HandlerFunc {
		return func(context.Context, dispatch.Request) (dispatch.Result, error) {
			return dispatch.Result{}, err
		}
	}
	d, _ := newDispatcher(t,
		dispatch.Route{Method: "GET", Pattern: "notfound", Handler: fail(domain.ErrCustomerNotFound)},
		dispatch.Route{Method: "GET", Pattern: "state", Handler: fail(domain.ErrQuoteNotCalculated)},
		dispatch.Route{Method: "GET", Pattern: "quota", Handler: fail(domain.ErrQuotaExceeded)},
		dispatch.Route{Method: "GET", Pattern: "store", Handler: fail(domain.Unavailable(errors.New("disk gone")))},
		dispatch.Route{Method: "GET", Pattern: "plain", Handler: fail(errors.New("secret detail"))},
		dispatch.Route{Method: "GET", Pattern: "panic", Handler: func(context.Context, dispatch.Request) (dispatch.Result, error) {
			panic("boom")
		}},
		dispatch.Route{Method: "POST", Pattern: "body", Handler: echo("body")},
	)

	tests := []struct {
		method, uri, body string
		status            int
		message           string
	}{
		{"GET", "/api/notfound", "", http.StatusNotFound, "Customer not found"},
		{"GET", "/api/state", "", http.StatusBadRequest, "Quote must be calculated before it can be accepted"},
		{"GET", "/api/quota", "", http.StatusBadRequest, "Message quota exceeded"},
		{"GET", "/api/store", "", http.StatusInternalServerError, "store unavailable"},
		{"GET", "/api/plain", "", http.StatusInternalServerError, "internal error"},
		{"GET", "/api/panic", "", http.StatusInternalServerError, "internal error"},
		{"POST", "/api/body", `{"name":`, http.StatusBadRequest, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ctx := do(d.Handle, tt.method, tt.uri, tt.body)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, string(ctx.Response.Body()))
			assert.Equal(t, "local", string(ctx.Response.Header.Peek(dispatch.ServedByHeader)))
		})
	}
}

func TestRequestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := dispatch.NewRequest("POST", "customers", nil, []byte(`{"name":"Jane"}`), map[string]string{"terms": "a b"})
	require.NoError(t, req.Decode(&v))
	assert.Equal(t, "Jane", v.Name)
	assert.Equal(t, "a b", req.Query("terms"))
	assert.Empty(t, req.Query("missing"))

	empty := dispatch.NewRequest("POST", "customers", nil, nil, nil)
	assert.NoError(t, empty.Decode(&v))

	bad := dispatch.NewRequest("POST", "customers", nil, []byte(`[1,2]`), nil)
	err := bad.Decode(&v)
	assert.ErrorIs(t, err, domain.ErrInvalidJSON)
}

func TestResolve(t *testing.T) {
	d, _ := newDispatcher(t, dispatch.Route{Method: "GET", Pattern: "search", Handler: echo("search")})

	route, _, ok := d.Resolve("GET", "/api/search")
	require.True(t, ok)
	assert.Equal(t, "GET search", route.Name)

	_, _, ok = d.Resolve("GET", "/search")
	assert.False(t, ok)
}
