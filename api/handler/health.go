package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/api/transport"
	"github.com/fastygo/interceptor/internal/infrastructure/monitor"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /__interceptor/health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	report := transport.HealthReport{Status: "ok", Services: status}
	code := http.StatusOK
	if !status.Store {
		report.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body, err := json.Marshal(report)
	if err != nil {
		h.logger.Error("health encoding failed", zap.Error(err))
		ctx.Error("internal error", http.StatusInternalServerError)
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(code)
	ctx.SetBody(body)
}
