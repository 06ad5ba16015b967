package router

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/interceptor/api/dispatch"
	apiHandler "github.com/fastygo/interceptor/api/handler"
	"github.com/fastygo/interceptor/internal/catalog"
	"github.com/fastygo/interceptor/internal/infrastructure/monitor"
	"github.com/fastygo/interceptor/pkg/httpcontext"
	"github.com/fastygo/interceptor/repository/memory"
	insuranceUC "github.com/fastygo/interceptor/usecase/insurance"
	messagingUC "github.com/fastygo/interceptor/usecase/messaging"
	searchUC "github.com/fastygo/interceptor/usecase/search"
)

const healthPath = "/__interceptor/health"

type app struct {
	handler   fasthttp.RequestHandler
	forwarded []string
	now       time.Time
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore()

	insurance := insuranceUC.New(store, catalog.Default(), nil,
		insuranceUC.WithPricer(insuranceUC.FixedPricer(750)),
		insuranceUC.WithClock(func() time.Time { return a.now }))
	messaging := messagingUC.New(store, 0, nil, nil)
	search := searchUC.New(store, nil)

	mon := monitor.New(store, "", nil, messaging, time.Hour, nil)
	mon.Start()
	t.Cleanup(mon.Stop)

	handlers := Handlers{
		Insurance: apiHandler.NewInsuranceHandler(insurance, nil),
		Messages:  apiHandler.NewMessageHandler(messaging, nil),
		Search:    apiHandler.NewSearchHandler(search, nil),
		Health:    apiHandler.NewHealthHandler(mon, nil),
	}
	table, err := dispatch.NewTable(Routes(handlers)...)
	require.NoError(t, err)

	fwd := dispatch.ForwarderFunc(func(ctx *fasthttp.RequestCtx) {
		a.forwarded = append(a.forwarded, string(ctx.Method())+" "+string(ctx.RequestURI()))
		ctx.SetStatusCode(http.StatusOK)
		ctx.SetBodyString("from upstream")
	})
	d := dispatch.New("/api", table, fwd, httpcontext.NewAdapter(time.Second), nil)
	a.handler = New(healthPath, handlers.Health, d).Handler
	return a
}

func (a *app) call(t *testing.T, method, uri, body string, wantStatus int) map[string]any {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	a.handler(ctx)
	require.Equal(t, wantStatus, ctx.Response.StatusCode(), "%s %s: %s", method, uri, ctx.Response.Body())

	var out map[string]any
	if raw := ctx.Response.Body(); len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

func (a *app) list(t *testing.T, uri string) []any {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(http.MethodGet)
	ctx.Request.SetRequestURI(uri)
	a.handler(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), "%s: %s", uri, ctx.Response.Body())

	var out []any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &out))
	return out
}

func TestRoutesTableCompiles(t *testing.T) {
	routes := Routes(Handlers{
		Insurance: &apiHandler.InsuranceHandler{},
		Messages:  &apiHandler.MessageHandler{},
		Search:    &apiHandler.SearchHandler{},
	})
	_, err := dispatch.NewTable(routes...)
	require.NoError(t, err)
}

func TestUnknownCustomerIsNotFound(t *testing.T) {
	a := newApp(t)
	body := a.call(t, http.MethodGet, "/api/customers/cust1", "", http.StatusNotFound)
	assert.Equal(t, map[string]any{"error": "Customer not found"}, body)
	assert.Empty(t, a.forwarded)
}

func TestPassThrough(t *testing.T) {
	a := newApp(t)
	a.call(t, http.MethodGet, "/assets/app.js", "", http.StatusOK)
	a.call(t, http.MethodDelete, "/api/customers", "", http.StatusOK)
	a.call(t, http.MethodPost, "/api/customers/cust1/quotes/q1/reject", "{}", http.StatusOK)
	a.call(t, http.MethodGet, "/api/customers/", "", http.StatusOK)

	assert.Equal(t, []string{
		"GET /assets/app.js",
		"DELETE /api/customers",
		"POST /api/customers/cust1/quotes/q1/reject",
	}, a.forwarded)
}

func TestGreeting(t *testing.T) {
	a := newApp(t)
	body := a.call(t, http.MethodGet, "/api/data", "", http.StatusOK)
	assert.Equal(t, "Hello from the interceptor! (data)", body["message"])
}

func TestInsuranceWorkflow(t *testing.T) {
	a := newApp(t)

	customer := a.call(t, http.MethodPost, "/api/customers", `{"name":"Jane Doe","email":"jane@example.com"}`, http.StatusCreated)
	assert.Equal(t, "cust1", customer["id"])
	assert.Len(t, a.list(t, "/api/customers"), 1)
	assert.NotEmpty(t, a.list(t, "/api/products"))

	a.call(t, http.MethodPost, "/api/customers/cust1/quotes", `{}`, http.StatusBadRequest)
	quote := a.call(t, http.MethodPost, "/api/customers/cust1/quotes", `{"productId":"auto"}`, http.StatusCreated)
	assert.Equal(t, "quote1", quote["id"])
	assert.Equal(t, "draft", quote["status"])

	quote = a.call(t, http.MethodPut, "/api/customers/cust1/quotes/quote1", `{"vehicle":"car"}`, http.StatusOK)
	assert.Equal(t, map[string]any{"vehicle": "car"}, quote["details"])
	quote = a.call(t, http.MethodPut, "/api/customers/cust1/quotes/quote1", `{"details":{"year":2021}}`, http.StatusOK)
	assert.Equal(t, map[string]any{"vehicle": "car", "year": float64(2021)}, quote["details"])

	errBody := a.call(t, http.MethodPost, "/api/customers/cust1/quotes/quote1/accept", "", http.StatusBadRequest)
	assert.Equal(t, "Quote must be calculated before it can be accepted", errBody["error"])

	quote = a.call(t, http.MethodPost, "/api/customers/cust1/quotes/quote1/calculate", "", http.StatusOK)
	assert.Equal(t, "calculated", quote["status"])
	assert.Equal(t, float64(750), quote["premium"])

	policy := a.call(t, http.MethodPost, "/api/customers/cust1/quotes/quote1/accept", "", http.StatusCreated)
	assert.Equal(t, "policy1", policy["id"])
	assert.Equal(t, "active", policy["status"])
	assert.Equal(t, "2024-05-01T12:00:00Z", policy["startDate"])
	assert.Equal(t, "2025-05-01T12:00:00Z", policy["endDate"])
	a.call(t, http.MethodGet, "/api/customers/cust1/quotes/quote1", "", http.StatusNotFound)

	got := a.call(t, http.MethodGet, "/api/customers/cust1/policies/policy1", "", http.StatusOK)
	assert.Equal(t, policy, got)
	assert.Len(t, a.list(t, "/api/customers/cust1/policies"), 1)

	renewal := a.call(t, http.MethodGet, "/api/customers/cust1/policies/policy1/renewal", "", http.StatusOK)
	assert.Equal(t, "not_available", renewal["status"])
	errBody = a.call(t, http.MethodPost, "/api/customers/cust1/policies/policy1/renew", "", http.StatusBadRequest)
	assert.Equal(t, "Policy is not yet renewable", errBody["error"])

	a.now = time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	renewal = a.call(t, http.MethodGet, "/api/customers/cust1/policies/policy1/renewal", "", http.StatusOK)
	assert.Equal(t, "available", renewal["status"])
	assert.Equal(t, float64(11), renewal["daysRemaining"])
	renewed := a.call(t, http.MethodPost, "/api/customers/cust1/policies/policy1/renew", "", http.StatusOK)
	assert.Equal(t, "2025-05-01T12:00:00Z", renewed["startDate"])
	assert.Equal(t, "2026-05-01T12:00:00Z", renewed["endDate"])

	errBody = a.call(t, http.MethodPost, "/api/customers/cust1/claims", `{"description":"hail"}`, http.StatusBadRequest)
	assert.Equal(t, "policyId is required", errBody["error"])
	a.call(t, http.MethodPost, "/api/customers/cust1/claims", `{"policyId":"policy9"}`, http.StatusNotFound)
	claim := a.call(t, http.MethodPost, "/api/customers/cust1/claims", `{"policyId":"policy1","description":"hail"}`, http.StatusCreated)
	assert.Equal(t, "claim1", claim["id"])
	assert.Equal(t, "open", claim["status"])
	assert.Equal(t, claim, a.call(t, http.MethodGet, "/api/customers/cust1/claims/claim1", "", http.StatusOK))
	assert.Len(t, a.list(t, "/api/customers/cust1/claims"), 1)

	results := a.list(t, "/api/search?terms=doe")
	require.Len(t, results, 1)
	assert.Equal(t, "customer", results[0].(map[string]any)["type"])
}

func TestMessages(t *testing.T) {
	a := newApp(t)

	msg := a.call(t, http.MethodPost, "/api/messages", `{"text":"hello world"}`, http.StatusCreated)
	assert.Equal(t, "1", msg["id"])
	a.call(t, http.MethodPost, "/api/messages", `not json`, http.StatusBadRequest)

	big := `"` + strings.Repeat("x", 3000) + `"`
	errBody := a.call(t, http.MethodPost, "/api/messages", big, http.StatusBadRequest)
	assert.Equal(t, "Message quota exceeded", errBody["error"])

	listing := a.call(t, http.MethodGet, "/api/messages", "", http.StatusOK)
	assert.Len(t, listing["messages"], 1)
	assert.Equal(t, float64(len(`{"text":"hello world"}`)), listing["used"])
	assert.Equal(t, float64(3000), listing["limit"])

	results := a.list(t, "/api/search?terms=WORLD")
	require.Len(t, results, 1)
	assert.Equal(t, "message", results[0].(map[string]any)["type"])
	assert.Empty(t, a.list(t, "/api/search"))
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	body := a.call(t, http.MethodGet, healthPath, "", http.StatusOK)
	assert.Equal(t, "ok", body["status"])
	services := body["services"].(map[string]any)
	assert.Equal(t, true, services["store"])
	assert.Equal(t, false, services["upstream"])
	assert.Empty(t, a.forwarded)
}
