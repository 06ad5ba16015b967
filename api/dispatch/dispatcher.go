// Package dispatch decides, per request, whether the local route table serves
// it or it is passed through to the real network unchanged.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/pkg/httpcontext"
	"github.com/fastygo/interceptor/pkg/logger"
)

// ServedByHeader marks responses produced locally rather than upstream.
const ServedByHeader = "X-Interceptor"

// Forwarder sends a request to the real network and writes the upstream
// response into ctx.
type Forwarder interface {
	Forward(ctx *fasthttp.RequestCtx)
}

// ForwarderFunc adapts a function to Forwarder.
type ForwarderFunc func(ctx *fasthttp.RequestCtx)

func (f ForwarderFunc) Forward(ctx *fasthttp.RequestCtx) { f(ctx) }

// ErrorBody is the JSON shape of every locally produced error.
type ErrorBody struct {
	Error string `json:"error"`
}

type Dispatcher struct {
	prefix  string
	table   *Table
	forward Forwarder
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

// New creates a dispatcher claiming every path under prefix. Without a
// forwarder, pass-through requests get 502 Bad Gateway.
func New(prefix string, table *Table, forward Forwarder, adapter *httpcontext.Adapter, logger *zap.Logger) *Dispatcher {
	if forward == nil {
		forward = ForwarderFunc(func(ctx *fasthttp.RequestCtx) {
			ctx.Error("no upstream configured", fasthttp.StatusBadGateway)
		})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		prefix:  strings.TrimRight(prefix, "/"),
		table:   table,
		forward: forward,
		adapter: adapter,
		logger:  logger,
	}
}

// Resolve reports which route, if any, would serve method and path.
func (d *Dispatcher) Resolve(method, path string) (*Route, Params, bool) {
	rel, ok := d.relative(path)
	if !ok {
		return nil, nil, false
	}
	return d.table.Match(method, Split(rel))
}

// Handle is the fasthttp entry point.
func (d *Dispatcher) Handle(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := string(ctx.Path())

	rel, ok := d.relative(path)
	if !ok {
		d.passThrough(ctx, method, path)
		return
	}
	route, params, ok := d.table.Match(method, Split(rel))
	if !ok {
		d.passThrough(ctx, method, path)
		return
	}

	start := time.Now()
	stdCtx, cancel := d.adapter.Attach(ctx)
	defer cancel()
	log := logger.WithRequestID(stdCtx, d.logger).With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("route", route.Name),
	)

	req := Request{
		Method: method,
		Path:   rel,
		Params: params,
		query:  &fasthttp.Args{},
	}
	ctx.QueryArgs().CopyTo(req.query)

	var (
		res Result
		err error
	)
	if hasBody(method) {
		req.Body = append([]byte(nil), ctx.PostBody()...)
		if len(req.Body) > 0 && !json.Valid(req.Body) {
			err = domain.ErrInvalidJSON
		}
	}
	if err == nil {
		res, err = d.invoke(stdCtx, route, req)
	}

	if err != nil {
		status := statusOf(err)
		d.writeJSON(ctx, status, ErrorBody{Error: domain.MessageOf(err)})
		fields := []zap.Field{zap.Int("status", status), zap.Duration("duration", time.Since(start)), zap.Error(err)}
		if status >= http.StatusInternalServerError {
			log.Error("handler failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}
		return
	}

	if res.Status == 0 {
		res.Status = http.StatusOK
	}
	d.writeJSON(ctx, res.Status, res.Body)
	log.Debug("request served", zap.Int("status", res.Status), zap.Duration("duration", time.Since(start)))
}

// invoke runs the handler and converts a panic into an internal error.
func (d *Dispatcher) invoke(ctx context.Context, route *Route, req Request) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrCodeInternal, "internal error", fmt.Errorf("panic in %s: %v", route.Name, r))
		}
	}()
	return route.Handler(ctx, req)
}

func (d *Dispatcher) passThrough(ctx *fasthttp.RequestCtx, method, path string) {
	d.logger.Debug("pass-through", zap.String("method", method), zap.String("path", path))
	d.forward.Forward(ctx)
}

// relative strips the base prefix; ok is false for paths outside it.
func (d *Dispatcher) relative(path string) (string, bool) {
	if d.prefix == "" {
		return path, true
	}
	if path == d.prefix {
		return "", true
	}
	if strings.HasPrefix(path, d.prefix+"/") {
		return path[len(d.prefix):], true
	}
	return "", false
}

func (d *Dispatcher) writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	ctx.Response.Header.Set(ServedByHeader, "local")
	if status == http.StatusNoContent {
		ctx.SetStatusCode(status)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("response encoding failed", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorBody{Error: "internal error"})
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// statusOf is the single place where domain failures become HTTP statuses.
func statusOf(err error) int {
	switch domain.CodeOf(err) {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeInvalidState, domain.ErrCodeQuotaExceeded, domain.ErrCodeMalformedInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
