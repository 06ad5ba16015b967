package insurance

import (
	"context"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/internal/events"
	"github.com/fastygo/interceptor/repository"
)

func (uc *UseCase) GetPolicy(ctx context.Context, customerID, policyID string) (*domain.Policy, error) {
	var policy *domain.Policy
	err := uc.view(ctx, func(tx repository.Tx) error {
		var err error
		policy, err = requirePolicy(tx, customerID, policyID)
		return err
	})
	return policy, err
}

func (uc *UseCase) ListPolicies(ctx context.Context, customerID string) ([]domain.Policy, error) {
	var policies []domain.Policy
	err := uc.view(ctx, func(tx repository.Tx) error {
		if _, err := requireCustomer(tx, customerID); err != nil {
			return err
		}
		var err error
		policies, err = repository.PolicyRecords.Filter(tx, func(p *domain.Policy) bool {
			return p.BelongsTo(customerID)
		})
		return err
	})
	return policies, err
}

// GetRenewalInfo proposes the next term when the policy is inside the
// renewal window. It never modifies the policy.
func (uc *UseCase) GetRenewalInfo(ctx context.Context, customerID, policyID string) (*domain.RenewalInfo, error) {
	policy, err := uc.GetPolicy(ctx, customerID, policyID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	info := &domain.RenewalInfo{
		PolicyID:      policy.ID,
		Status:        domain.RenewalNotAvailable,
		DaysRemaining: policy.DaysRemaining(now),
	}
	if !policy.Renewable(now) {
		return info, nil
	}

	premium, err := uc.pricer.Premium(ctx, policy.ProductID, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "premium calculation failed", err)
	}
	start, end := policy.NextTerm()
	info.Status = domain.RenewalAvailable
	info.Premium = &premium
	info.StartDate = &start
	info.EndDate = &end
	return info, nil
}

// RenewPolicy moves the policy to its next term in place.
func (uc *UseCase) RenewPolicy(ctx context.Context, customerID, policyID string) (*domain.Policy, error) {
	var policy *domain.Policy
	err := uc.update(ctx, func(tx repository.Tx) error {
		var err error
		if policy, err = requirePolicy(tx, customerID, policyID); err != nil {
			return err
		}
		if err := policy.Renew(uc.now()); err != nil {
			return err
		}
		return repository.PolicyRecords.Put(tx, policy.ID, policy)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.New(domain.EventPolicyRenewed, policy.ID, customerID, policy))
	return policy, nil
}

func requirePolicy(tx repository.Tx, customerID, policyID string) (*domain.Policy, error) {
	if _, err := requireCustomer(tx, customerID); err != nil {
		return nil, err
	}
	policy, err := repository.PolicyRecords.Get(tx, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil || !policy.BelongsTo(customerID) {
		return nil, domain.ErrPolicyNotFound
	}
	return policy, nil
}
