package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/interceptor/api/dispatch"
	"github.com/fastygo/interceptor/api/transport"
	searchUC "github.com/fastygo/interceptor/usecase/search"
)

type SearchHandler struct {
	baseHandler
	uc *searchUC.UseCase
}

func NewSearchHandler(uc *searchUC.UseCase, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		baseHandler: newBaseHandler(logger),
		uc:          uc,
	}
}

// @Summary Full-text search
// @Router /search [get]
func (h *SearchHandler) Search(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	results, err := h.uc.Search(ctx, req.Query("terms"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(list(results)), nil
}

// Greeting is the connectivity probe served on GET data.
func Greeting(context.Context, dispatch.Request) (dispatch.Result, error) {
	return dispatch.OK(transport.Greeting{Message: "Hello from the interceptor! (data)"}), nil
}
