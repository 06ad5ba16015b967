package handler

import (
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/api/dispatch"
)

type baseHandler struct {
	logger *zap.Logger
}

func newBaseHandler(logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{logger: logger}
}

// decode reads a JSON body into v; malformed bodies surface as MALFORMED_INPUT.
func (h baseHandler) decode(req dispatch.Request, v any) error {
	return req.Decode(v)
}

// list keeps empty collections encoded as [] rather than null.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
