package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// HandlerFunc serves one matched route. Returned errors are turned into
// JSON error responses by the Dispatcher.
type HandlerFunc func(ctx context.Context, req Request) (Result, error)

// Route binds a method and a segment template such as
// "customers/{id}/quotes/{qid}/accept" to a handler.
type Route struct {
	Name    string
	Method  string
	Pattern string
	Handler HandlerFunc
}

type segment struct {
	literal string
	param   string
}

type compiledRoute struct {
	Route
	segments []segment
}

func (r compiledRoute) match(method string, parts []string) (Params, bool) {
	if r.Method != method || len(r.segments) != len(parts) {
		return nil, false
	}
	var params Params
	for i, seg := range r.segments {
		if seg.param == "" {
			if seg.literal != parts[i] {
				return nil, false
			}
			continue
		}
		if params == nil {
			params = make(Params, 2)
		}
		params[seg.param] = parts[i]
	}
	return params, true
}

// Table is an ordered route list; the first matching entry wins.
type Table struct {
	routes []compiledRoute
}

// NewTable compiles routes, rejecting malformed templates and exact duplicates.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{routes: make([]compiledRoute, 0, len(routes))}
	seen := make(map[string]string, len(routes))
	for _, r := range routes {
		if r.Handler == nil {
			return nil, fmt.Errorf("route %s %s has no handler", r.Method, r.Pattern)
		}
		r.Method = strings.ToUpper(r.Method)
		if r.Method == "" {
			r.Method = http.MethodGet
		}
		segs, shape, err := compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		key := r.Method + " " + shape
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("route %s %s shadows %s", r.Method, r.Pattern, prev)
		}
		seen[key] = r.Pattern
		if r.Name == "" {
			r.Name = key
		}
		t.routes = append(t.routes, compiledRoute{Route: r, segments: segs})
	}
	return t, nil
}

// MustTable is NewTable for static tables.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Match finds the route for method and the path segments below the base prefix.
func (t *Table) Match(method string, parts []string) (*Route, Params, bool) {
	if t == nil {
		return nil, nil, false
	}
	for i := range t.routes {
		if params, ok := t.routes[i].match(method, parts); ok {
			return &t.routes[i].Route, params, true
		}
	}
	return nil, nil, false
}

// Routes returns the table entries in match order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i := range t.routes {
		out[i] = t.routes[i].Route
	}
	return out
}

// compile also returns the template's shape with parameter names erased,
// so "a/{x}" and "a/{y}" are detected as the same route.
func compile(pattern string) ([]segment, string, error) {
	parts := Split(pattern)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("empty route pattern %q", pattern)
	}
	segs := make([]segment, len(parts))
	shape := make([]string, len(parts))
	names := make(map[string]struct{}, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			name := p[1 : len(p)-1]
			if name == "" {
				return nil, "", fmt.Errorf("route %q: empty parameter name", pattern)
			}
			if _, dup := names[name]; dup {
				return nil, "", fmt.Errorf("route %q: duplicate parameter %q", pattern, name)
			}
			names[name] = struct{}{}
			segs[i] = segment{param: name}
			shape[i] = "{}"
			continue
		}
		if strings.ContainsAny(p, "{}") {
			return nil, "", fmt.Errorf("route %q: malformed segment %q", pattern, p)
		}
		segs[i] = segment{literal: p}
		shape[i] = p
	}
	return segs, strings.Join(shape, "/"), nil
}

// Split breaks a path into its non-empty segments.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
