// Package proxy sends unclaimed requests to the real upstream.
package proxy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Doer is the subset of fasthttp.Client used for forwarding.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

type Forwarder struct {
	upstream string
	client   Doer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewForwarder validates upstream, which must be an absolute http(s) URL.
// The request path and query are appended to it untouched.
func NewForwarder(upstream string, timeout time.Duration, client Doer, logger *zap.Logger) (*Forwarder, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute http(s) URL", upstream)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if client == nil {
		client = &fasthttp.Client{
			Name:                     "interceptor",
			NoDefaultUserAgentHeader: true,
			DisablePathNormalizing:   true,
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		upstream: strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"),
		client:   client,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Forward relays ctx's request and copies the upstream response back.
func (f *Forwarder) Forward(ctx *fasthttp.RequestCtx) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	ctx.Request.CopyTo(req)
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}
	req.SetRequestURI(f.upstream + string(ctx.RequestURI()))
	if ip := ctx.RemoteIP(); ip != nil {
		req.Header.Add("X-Forwarded-For", ip.String())
	}

	if err := f.client.DoTimeout(req, resp, f.timeout); err != nil {
		status := fasthttp.StatusBadGateway
		if errors.Is(err, fasthttp.ErrTimeout) {
			status = fasthttp.StatusGatewayTimeout
		}
		f.logger.Warn("upstream request failed",
			zap.String("method", string(ctx.Method())),
			zap.String("uri", string(ctx.RequestURI())),
			zap.Error(err))
		ctx.Error(fasthttp.StatusMessage(status), status)
		return
	}

	for _, h := range hopHeaders {
		resp.Header.Del(h)
	}
	resp.CopyTo(&ctx.Response)
}
