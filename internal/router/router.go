package router

import (
	"net/http"

	"github.com/fasthttp/router"

	"github.com/fastygo/interceptor/api/dispatch"
	apiHandler "github.com/fastygo/interceptor/api/handler"
)

type Handlers struct {
	Insurance *apiHandler.InsuranceHandler
	Messages  *apiHandler.MessageHandler
	Search    *apiHandler.SearchHandler
	Health    *apiHandler.HealthHandler
}

// Routes is the locally served surface below the base prefix.
func Routes(h Handlers) []dispatch.Route {
	return []dispatch.Route{
		{Method: http.MethodGet, Pattern: "data", Handler: apiHandler.Greeting},

		{Method: http.MethodPost, Pattern: "customers", Handler: h.Insurance.CreateCustomer},
		{Method: http.MethodGet, Pattern: "customers", Handler: h.Insurance.ListCustomers},
		{Method: http.MethodGet, Pattern: "customers/{id}", Handler: h.Insurance.GetCustomer},
		{Method: http.MethodGet, Pattern: "products", Handler: h.Insurance.ListProducts},

		{Method: http.MethodPost, Pattern: "customers/{id}/quotes", Handler: h.Insurance.StartQuote},
		{Method: http.MethodGet, Pattern: "customers/{id}/quotes/{qid}", Handler: h.Insurance.GetQuote},
		{Method: http.MethodPut, Pattern: "customers/{id}/quotes/{qid}", Handler: h.Insurance.UpdateQuoteDetails},
		{Method: http.MethodPost, Pattern: "customers/{id}/quotes/{qid}/calculate", Handler: h.Insurance.CalculatePremium},
		{Method: http.MethodPost, Pattern: "customers/{id}/quotes/{qid}/accept", Handler: h.Insurance.AcceptQuote},

		{Method: http.MethodGet, Pattern: "customers/{id}/policies", Handler: h.Insurance.ListPolicies},
		{Method: http.MethodGet, Pattern: "customers/{id}/policies/{pid}", Handler: h.Insurance.GetPolicy},
		{Method: http.MethodGet, Pattern: "customers/{id}/policies/{pid}/renewal", Handler: h.Insurance.GetRenewalInfo},
		{Method: http.MethodPost, Pattern: "customers/{id}/policies/{pid}/renew", Handler: h.Insurance.RenewPolicy},

		{Method: http.MethodPost, Pattern: "customers/{id}/claims", Handler: h.Insurance.FileClaim},
		{Method: http.MethodGet, Pattern: "customers/{id}/claims", Handler: h.Insurance.ListClaims},
		{Method: http.MethodGet, Pattern: "customers/{id}/claims/{cid}", Handler: h.Insurance.GetClaim},

		{Method: http.MethodPost, Pattern: "messages", Handler: h.Messages.PostMessage},
		{Method: http.MethodGet, Pattern: "messages", Handler: h.Messages.ListMessages},
		{Method: http.MethodGet, Pattern: "search", Handler: h.Search.Search},
	}
}

// New serves the admin health endpoint and hands every other request to d,
// which either answers it locally or passes it through.
func New(healthPath string, health *apiHandler.HealthHandler, d *dispatch.Dispatcher) *router.Router {
	r := router.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = false
	r.HandleOPTIONS = false

	if health != nil && healthPath != "" {
		r.GET(healthPath, health.Check)
	}
	r.NotFound = d.Handle

	return r
}
