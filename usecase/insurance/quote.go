package insurance

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/internal/events"
	"github.com/fastygo/interceptor/pkg/logger"
	"github.com/fastygo/interceptor/repository"
)

var ErrProductNotFound = domain.NewError(domain.ErrCodeNotFound, "Product not found")

// StartQuote opens a draft quote with empty details.
func (uc *UseCase) StartQuote(ctx context.Context, customerID, productID string) (*domain.Quote, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.ErrProductRequired
	}

	var quote *domain.Quote
	err := uc.update(ctx, func(tx repository.Tx) error {
		if _, err := requireCustomer(tx, customerID); err != nil {
			return err
		}
		if uc.catalog != nil {
			if _, ok := uc.catalog.Product(productID); !ok {
				return ErrProductNotFound
			}
		}
		id, err := repository.NextID(tx, repository.Quotes)
		if err != nil {
			return err
		}
		quote = &domain.Quote{
			ID:         id,
			CustomerID: customerID,
			ProductID:  productID,
			Status:     domain.QuoteDraft,
			Details:    map[string]any{},
		}
		return repository.QuoteRecords.Put(tx, id, quote)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.New(domain.EventQuoteStarted, quote.ID, customerID, quote))
	return quote, nil
}

func (uc *UseCase) GetQuote(ctx context.Context, customerID, quoteID string) (*domain.Quote, error) {
	var quote *domain.Quote
	err := uc.view(ctx, func(tx repository.Tx) error {
		var err error
		quote, err = requireQuote(tx, customerID, quoteID)
		return err
	})
	return quote, err
}

// UpdateQuoteDetails shallow-merges patch into the quote details without touching its status.
func (uc *UseCase) UpdateQuoteDetails(ctx context.Context, customerID, quoteID string, patch map[string]any) (*domain.Quote, error) {
	var quote *domain.Quote
	err := uc.update(ctx, func(tx repository.Tx) error {
		var err error
		if quote, err = requireQuote(tx, customerID, quoteID); err != nil {
			return err
		}
		if err := quote.MergeDetails(patch); err != nil {
			return err
		}
		return repository.QuoteRecords.Put(tx, quote.ID, quote)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.New(domain.EventQuoteUpdated, quote.ID, customerID, patch))
	return quote, nil
}

// CalculatePremium prices the quote and marks it calculated. Re-pricing a
// calculated quote is allowed.
func (uc *UseCase) CalculatePremium(ctx context.Context, customerID, quoteID string) (*domain.Quote, error) {
	var quote *domain.Quote
	err := uc.update(ctx, func(tx repository.Tx) error {
		var err error
		if quote, err = requireQuote(tx, customerID, quoteID); err != nil {
			return err
		}
		premium, err := uc.pricer.Premium(ctx, quote.ProductID, quote.Details)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "premium calculation failed", err)
		}
		if err := quote.Price(premium); err != nil {
			return err
		}
		return repository.QuoteRecords.Put(tx, quote.ID, quote)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.New(domain.EventQuoteCalculated, quote.ID, customerID, quote))
	return quote, nil
}

// AcceptQuote converts a calculated quote into an active one-year policy.
// The quote record is removed; no quote history is kept after acceptance.
func (uc *UseCase) AcceptQuote(ctx context.Context, customerID, quoteID string) (*domain.Policy, error) {
	var policy *domain.Policy
	err := uc.update(ctx, func(tx repository.Tx) error {
		quote, err := requireQuote(tx, customerID, quoteID)
		if err != nil {
			return err
		}
		if err := quote.CanAccept(); err != nil {
			return err
		}
		id, err := repository.NextID(tx, repository.Policies)
		if err != nil {
			return err
		}
		policy = domain.NewPolicy(id, quote, uc.now())
		if err := repository.PolicyRecords.Put(tx, id, policy); err != nil {
			return err
		}
		return repository.QuoteRecords.Delete(tx, quote.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("quote accepted",
		zap.String("quote_id", quoteID),
		zap.String("policy_id", policy.ID))
	uc.publish(ctx, events.New(domain.EventPolicyIssued, policy.ID, customerID, policy))
	return policy, nil
}

func requireQuote(tx repository.Tx, customerID, quoteID string) (*domain.Quote, error) {
	if _, err := requireCustomer(tx, customerID); err != nil {
		return nil, err
	}
	quote, err := repository.QuoteRecords.Get(tx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil || !quote.BelongsTo(customerID) {
		return nil, domain.ErrQuoteNotFound
	}
	return quote, nil
}
