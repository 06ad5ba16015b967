package insurance

import (
	"context"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/internal/events"
	"github.com/fastygo/interceptor/repository"
)

// CustomerInput is the free-form data a customer is created from.
type CustomerInput struct {
	Name    string
	Email   string
	Address any
}

// CreateCustomer always succeeds for a reachable store and assigns a fresh id.
func (uc *UseCase) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	var customer *domain.Customer
	err := uc.update(ctx, func(tx repository.Tx) error {
		id, err := repository.NextID(tx, repository.Customers)
		if err != nil {
			return err
		}
		customer = &domain.Customer{
			ID:      id,
			Name:    in.Name,
			Email:   in.Email,
			Address: in.Address,
		}
		return repository.CustomerRecords.Put(tx, id, customer)
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.New(domain.EventCustomerCreated, customer.ID, customer.ID, customer))
	return customer, nil
}

func (uc *UseCase) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	var customer *domain.Customer
	err := uc.view(ctx, func(tx repository.Tx) error {
		var err error
		customer, err = requireCustomer(tx, customerID)
		return err
	})
	return customer, err
}

func (uc *UseCase) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := uc.view(ctx, func(tx repository.Tx) error {
		var err error
		customers, err = repository.CustomerRecords.All(tx)
		return err
	})
	return customers, err
}
