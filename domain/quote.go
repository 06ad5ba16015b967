package domain

// QuoteStatus tracks a quote through draft -> calculated -> accepted.
type QuoteStatus string

const (
	QuoteDraft      QuoteStatus = "draft"
	QuoteCalculated QuoteStatus = "calculated"
	QuoteAccepted   QuoteStatus = "accepted"
)

// Quote is a customer's pending request for a product.
type Quote struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customerId"`
	ProductID  string         `json:"productId"`
	Status     QuoteStatus    `json:"status"`
	Details    map[string]any `json:"details"`
	Premium    *int           `json:"premium,omitempty"`
}

func (q *Quote) BelongsTo(customerID string) bool {
	return q != nil && q.CustomerID == customerID
}

// MergeDetails overwrites top-level keys of the details mapping with patch.
func (q *Quote) MergeDetails(patch map[string]any) error {
	if q.Status == QuoteAccepted {
		return ErrQuoteAccepted
	}
	if q.Details == nil {
		q.Details = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		q.Details[k] = v
	}
	return nil
}

// Price records a premium and moves the quote to calculated.
func (q *Quote) Price(premium int) error {
	if q.Status == QuoteAccepted {
		return ErrQuoteAccepted
	}
	q.Premium = &premium
	q.Status = QuoteCalculated
	return nil
}

// CanAccept reports whether the quote may be converted into a policy.
func (q *Quote) CanAccept() error {
	if q.Status != QuoteCalculated {
		return ErrQuoteNotCalculated
	}
	return nil
}
