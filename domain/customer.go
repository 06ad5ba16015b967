package domain

// Customer is the root of every quote, policy and claim.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Address any    `json:"address,omitempty"`
}
