package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/interceptor/api/dispatch"
	"github.com/fastygo/interceptor/api/transport"
	insuranceUC "github.com/fastygo/interceptor/usecase/insurance"
)

type InsuranceHandler struct {
	baseHandler
	uc *insuranceUC.UseCase
}

func NewInsuranceHandler(uc *insuranceUC.UseCase, logger *zap.Logger) *InsuranceHandler {
	return &InsuranceHandler{
		baseHandler: newBaseHandler(logger),
		uc:          uc,
	}
}

// @Summary Create customer
// @Router /customers [post]
func (h *InsuranceHandler) CreateCustomer(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	var body transport.CustomerRequest
	if err := h.decode(req, &body); err != nil {
		return dispatch.Result{}, err
	}
	customer, err := h.uc.CreateCustomer(ctx, insuranceUC.CustomerInput{
		Name:    body.Name,
		Email:   body.Email,
		Address: body.Address,
	})
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Created(customer), nil
}

// @Summary List customers
// @Router /customers [get]
func (h *InsuranceHandler) ListCustomers(ctx context.Context, _ dispatch.Request) (dispatch.Result, error) {
	customers, err := h.uc.ListCustomers(ctx)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(list(customers)), nil
}

// @Summary Get customer
// @Router /customers/{id} [get]
func (h *InsuranceHandler) GetCustomer(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	customer, err := h.uc.GetCustomer(ctx, req.Param("id"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(customer), nil
}

// @Summary List products
// @Router /products [get]
func (h *InsuranceHandler) ListProducts(ctx context.Context, _ dispatch.Request) (dispatch.Result, error) {
	return dispatch.OK(list(h.uc.ListProducts(ctx))), nil
}

// @Summary Start quote
// @Router /customers/{id}/quotes [post]
func (h *InsuranceHandler) StartQuote(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	var body transport.QuoteRequest
	if err := h.decode(req, &body); err != nil {
		return dispatch.Result{}, err
	}
	quote, err := h.uc.StartQuote(ctx, req.Param("id"), body.ProductID)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Created(quote), nil
}

// @Summary Get quote
// @Router /customers/{id}/quotes/{qid} [get]
func (h *InsuranceHandler) GetQuote(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	quote, err := h.uc.GetQuote(ctx, req.Param("id"), req.Param("qid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(quote), nil
}

// @Summary Update quote details
// @Router /customers/{id}/quotes/{qid} [put]
func (h *InsuranceHandler) UpdateQuoteDetails(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	var body transport.QuoteDetailsRequest
	if err := h.decode(req, &body); err != nil {
		return dispatch.Result{}, err
	}
	quote, err := h.uc.UpdateQuoteDetails(ctx, req.Param("id"), req.Param("qid"), body.Details)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(quote), nil
}

// @Summary Calculate premium
// @Router /customers/{id}/quotes/{qid}/calculate [post]
func (h *InsuranceHandler) CalculatePremium(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	quote, err := h.uc.CalculatePremium(ctx, req.Param("id"), req.Param("qid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(quote), nil
}

// @Summary Accept quote
// @Router /customers/{id}/quotes/{qid}/accept [post]
func (h *InsuranceHandler) AcceptQuote(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	policy, err := h.uc.AcceptQuote(ctx, req.Param("id"), req.Param("qid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Created(policy), nil
}

// @Summary List policies
// @Router /customers/{id}/policies [get]
func (h *InsuranceHandler) ListPolicies(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	policies, err := h.uc.ListPolicies(ctx, req.Param("id"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(list(policies)), nil
}

// @Summary Get policy
// @Router /customers/{id}/policies/{pid} [get]
func (h *InsuranceHandler) GetPolicy(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	policy, err := h.uc.GetPolicy(ctx, req.Param("id"), req.Param("pid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(policy), nil
}

// @Summary Renewal quote
// @Router /customers/{id}/policies/{pid}/renewal [get]
func (h *InsuranceHandler) GetRenewalInfo(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	info, err := h.uc.GetRenewalInfo(ctx, req.Param("id"), req.Param("pid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(info), nil
}

// @Summary Renew policy
// @Router /customers/{id}/policies/{pid}/renew [post]
func (h *InsuranceHandler) RenewPolicy(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	policy, err := h.uc.RenewPolicy(ctx, req.Param("id"), req.Param("pid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(policy), nil
}

// @Summary File claim
// @Router /customers/{id}/claims [post]
func (h *InsuranceHandler) FileClaim(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	var body transport.ClaimRequest
	if err := h.decode(req, &body); err != nil {
		return dispatch.Result{}, err
	}
	claim, err := h.uc.FileClaim(ctx, req.Param("id"), insuranceUC.ClaimInput{
		PolicyID:    body.PolicyID,
		Description: body.Description,
	})
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Created(claim), nil
}

// @Summary List claims
// @Router /customers/{id}/claims [get]
func (h *InsuranceHandler) ListClaims(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	claims, err := h.uc.ListClaims(ctx, req.Param("id"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(list(claims)), nil
}

// @Summary Get claim
// @Router /customers/{id}/claims/{cid} [get]
func (h *InsuranceHandler) GetClaim(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	claim, err := h.uc.GetClaim(ctx, req.Param("id"), req.Param("cid"))
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.OK(claim), nil
}
