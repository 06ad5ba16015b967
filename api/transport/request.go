package transport

import "encoding/json"

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address any    `json:"address"`
}

type QuoteRequest struct {
	ProductID string `json:"productId"`
}

// QuoteDetailsRequest accepts either {"details": {...}} or the bare patch object.
type QuoteDetailsRequest struct {
	Details map[string]any
}

func (r *QuoteDetailsRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 1 {
		if nested, ok := raw["details"].(map[string]any); ok {
			r.Details = nested
			return nil
		}
	}
	r.Details = raw
	return nil
}

type ClaimRequest struct {
	PolicyID    string `json:"policyId"`
	Description string `json:"description"`
}
