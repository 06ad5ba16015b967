package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/interceptor/domain"
)

// Params holds the variable path segments captured by a route.
type Params map[string]string

func (p Params) Get(name string) string {
	return p[name]
}

// Request is what a handler sees of an intercepted call.
type Request struct {
	Method string
	// Path is relative to the base prefix.
	Path   string
	Params Params
	// Body is only populated for POST and PUT and is known to be valid JSON when non-empty.
	Body  []byte
	query *fasthttp.Args
}

func (r Request) Param(name string) string {
	return r.Params.Get(name)
}

// Query returns the first value of the query argument key.
func (r Request) Query(key string) string {
	if r.query == nil {
		return ""
	}
	return string(r.query.Peek(key))
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r Request) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return domain.WrapError(domain.ErrCodeMalformedInput, domain.ErrInvalidJSON.Message, err)
	}
	return nil
}

// NewRequest builds a Request outside of a live fasthttp call, mainly for tests.
func NewRequest(method, path string, params Params, body []byte, query map[string]string) Request {
	args := &fasthttp.Args{}
	for k, v := range query {
		args.Set(k, v)
	}
	return Request{Method: method, Path: path, Params: params, Body: body, query: args}
}

// Result is a handler's successful outcome.
type Result struct {
	Status int
	Body   any
}

func OK(body any) Result {
	return Result{Status: http.StatusOK, Body: body}
}

func Created(body any) Result {
	return Result{Status: http.StatusCreated, Body: body}
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}
