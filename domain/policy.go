package domain

import (
	"math"
	"time"
)

// RenewalWindow is how close to its end date a policy becomes renewable.
const RenewalWindow = 30 * 24 * time.Hour

type PolicyStatus string

const PolicyActive PolicyStatus = "active"

// Policy is issued from an accepted quote and covers one year at a time.
type Policy struct {
	ID         string       `json:"id"`
	CustomerID string       `json:"customerId"`
	QuoteID    string       `json:"quoteId"`
	ProductID  string       `json:"productId,omitempty"`
	Status     PolicyStatus `json:"status"`
	Premium    *int         `json:"premium,omitempty"`
	StartDate  time.Time    `json:"startDate"`
	EndDate    time.Time    `json:"endDate"`
}

// NewPolicy issues an active one-year policy for q starting at start.
func NewPolicy(id string, q *Quote, start time.Time) *Policy {
	start = start.UTC()
	return &Policy{
		ID:         id,
		CustomerID: q.CustomerID,
		QuoteID:    q.ID,
		ProductID:  q.ProductID,
		Status:     PolicyActive,
		Premium:    q.Premium,
		StartDate:  start,
		EndDate:    AddTerm(start),
	}
}

// AddTerm returns t plus one policy term (one calendar year).
func AddTerm(t time.Time) time.Time {
	return t.AddDate(1, 0, 0)
}

func (p *Policy) BelongsTo(customerID string) bool {
	return p != nil && p.CustomerID == customerID
}

// DaysRemaining is the number of started days left until EndDate, never negative.
func (p *Policy) DaysRemaining(now time.Time) int {
	left := p.EndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// Renewable reports whether now falls inside the renewal window.
func (p *Policy) Renewable(now time.Time) bool {
	return p.DaysRemaining(now) <= int(RenewalWindow.Hours()/24)
}

// NextTerm returns the start and end of the term following the current one.
func (p *Policy) NextTerm() (time.Time, time.Time) {
	return p.EndDate, AddTerm(p.EndDate)
}

// Renew advances the policy by one term in place.
func (p *Policy) Renew(now time.Time) error {
	if p.Status != PolicyActive {
		return ErrPolicyInactive
	}
	if !p.Renewable(now) {
		return ErrPolicyNotRenewable
	}
	p.StartDate, p.EndDate = p.NextTerm()
	return nil
}

// RenewalStatus is reported by renewal queries.
type RenewalStatus string

const (
	RenewalAvailable    RenewalStatus = "available"
	RenewalNotAvailable RenewalStatus = "not_available"
)

// RenewalInfo is a read-only renewal proposal.
type RenewalInfo struct {
	PolicyID      string        `json:"policyId"`
	Status        RenewalStatus `json:"status"`
	DaysRemaining int           `json:"daysRemaining"`
	Premium       *int          `json:"premium,omitempty"`
	StartDate     *time.Time    `json:"startDate,omitempty"`
	EndDate       *time.Time    `json:"endDate,omitempty"`
}
