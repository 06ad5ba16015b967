package domain

import "time"

type ClaimStatus string

const ClaimOpen ClaimStatus = "open"

// Claim is filed by a customer against one of their policies.
type Claim struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customerId"`
	PolicyID    string      `json:"policyId"`
	Status      ClaimStatus `json:"status"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
}

func (c *Claim) BelongsTo(customerID string) bool {
	return c != nil && c.CustomerID == customerID
}
