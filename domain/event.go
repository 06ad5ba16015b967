package domain

import (
	"encoding/json"
	"time"
)

// Event names emitted by the workflow.
const (
	EventCustomerCreated = "customer.created"
	EventQuoteStarted    = "quote.started"
	EventQuoteUpdated    = "quote.updated"
	EventQuoteCalculated = "quote.calculated"
	EventPolicyIssued    = "policy.issued"
	EventPolicyRenewed   = "policy.renewed"
	EventClaimFiled      = "claim.filed"
	EventMessagePosted   = "message.posted"
)

// Event represents a change applied to a stored record.
type Event struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	AggregateID string            `json:"aggregateId"`
	CustomerID  string            `json:"customerId,omitempty"`
	Payload     json.RawMessage   `json:"payload,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
