package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/interceptor/pkg/logger"
)

func TestAttachEchoesInboundRequestID(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(RequestIDHeader, " req-1 ")
	ctx.Request.Header.SetUserAgent("agent/1.0")

	stdCtx, cancel := NewAdapter(time.Second).Attach(ctx)
	defer cancel()

	assert.Equal(t, "req-1", appLogger.RequestID(stdCtx))
	assert.Equal(t, "req-1", string(ctx.Response.Header.Peek(RequestIDHeader)))
	assert.Equal(t, "agent/1.0", stdCtx.Value(KeyUserAgent))

	deadline, ok := stdCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestRequestIDIsGeneratedOnce(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	first := RequestID(ctx)
	require.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(ctx))

	stdCtx, cancel := (*Adapter)(nil).Attach(ctx)
	defer cancel()
	assert.Equal(t, first, appLogger.RequestID(stdCtx))
}
