package domain

import "context"

// Pricer produces a premium for a quote or a renewal.
type Pricer interface {
	Premium(ctx context.Context, productID string, details map[string]any) (int, error)
}
