package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/interceptor/api/dispatch"
	"github.com/fastygo/interceptor/api/transport"
	messagingUC "github.com/fastygo/interceptor/usecase/messaging"
)

type MessageHandler struct {
	baseHandler
	uc *messagingUC.UseCase
}

func NewMessageHandler(uc *messagingUC.UseCase, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		baseHandler: newBaseHandler(logger),
		uc:          uc,
	}
}

// @Summary Append message
// @Router /messages [post]
func (h *MessageHandler) PostMessage(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	msg, err := h.uc.PostMessage(ctx, req.Body)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Created(msg), nil
}

// @Summary List messages
// @Router /messages [get]
func (h *MessageHandler) ListMessages(ctx context.Context, _ dispatch.Request) (dispatch.Result, error) {
	messages, err := h.uc.ListMessages(ctx)
	if err != nil {
		return dispatch.Result{}, err
	}
	usage, err := h.uc.Usage(ctx)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(transport.MessageList{
		Messages: list(messages),
		Used:     usage.Used,
		Limit:    usage.Limit,
	}), nil
}
