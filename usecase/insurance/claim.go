package insurance

import (
	"context"
	"strings"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/internal/events"
	"github.com/fastygo/interceptor/repository"
)

type ClaimInput struct {
	PolicyID    string
	Description string
}

// FileClaim opens a claim against one of the customer's policies.
func (uc *UseCase) FileClaim(ctx context.Context, customerID string, in ClaimInput) (*domain.Claim, error) {
	policyID := strings.TrimSpace(in.PolicyID)
	if policyID == "" {
		return nil, domain.ErrPolicyIDRequired
	}

	var claim *domain.Claim
	err := uc.update(ctx, func(tx repository.Tx) error {
		if _, err := requirePolicy(tx, customerID, policyID); err != nil {
			return err
		}
		id, err := repository.NextID(tx, repository.Claims)
		if err != nil {
			return err
		}
		claim = &domain.Claim{
			ID:          id,
			CustomerID:  customerID,
			PolicyID:    policyID,
			Status:      domain.ClaimOpen,
			Description: in.Description,
			Date:        uc.now().UTC(),
		}
		return repository.ClaimRecords.Put(tx, id, claim)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.New(domain.EventClaimFiled, claim.ID, customerID, claim))
	return claim, nil
}

func (uc *UseCase) GetClaim(ctx context.Context, customerID, claimID string) (*domain.Claim, error) {
	var claim *domain.Claim
	err := uc.view(ctx, func(tx repository.Tx) error {
		if _, err := requireCustomer(tx, customerID); err != nil {
			return err
		}
		var err error
		if claim, err = repository.ClaimRecords.Get(tx, claimID); err != nil {
			return err
		}
		if claim == nil || !claim.BelongsTo(customerID) {
			return domain.ErrClaimNotFound
		}
		return nil
	})
	return claim, err
}

func (uc *UseCase) ListClaims(ctx context.Context, customerID string) ([]domain.Claim, error) {
	var claims []domain.Claim
	err := uc.view(ctx, func(tx repository.Tx) error {
		if _, err := requireCustomer(tx, customerID); err != nil {
			return err
		}
		var err error
		claims, err = repository.ClaimRecords.Filter(tx, func(c *domain.Claim) bool {
			return c.BelongsTo(customerID)
		})
		return err
	})
	return claims, err
}
