// Package insurance enforces the customer -> quote -> policy -> claim lifecycle.
package insurance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/pkg/logger"
	"github.com/fastygo/interceptor/repository"
	"github.com/fastygo/interceptor/usecase"
)

// Catalog resolves product reference data.
type Catalog interface {
	Products() []domain.Product
	Product(id string) (domain.Product, bool)
}

type UseCase struct {
	store   repository.Store
	catalog Catalog
	pricer  domain.Pricer
	events  usecase.EventPublisher
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*UseCase)

// WithPricer replaces the default random pricing model.
func WithPricer(p domain.Pricer) Option {
	return func(uc *UseCase) {
		if p != nil {
			uc.pricer = p
		}
	}
}

// WithClock sets the time source used for policy dates.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func WithEvents(p usecase.EventPublisher) Option {
	return func(uc *UseCase) {
		if p != nil {
			uc.events = p
		}
	}
}

func New(store repository.Store, catalog Catalog, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		store:   store,
		catalog: catalog,
		pricer:  NewRandomPricer(),
		events:  usecase.NopPublisher{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ListProducts returns the static catalog.
func (uc *UseCase) ListProducts(context.Context) []domain.Product {
	if uc.catalog == nil {
		return []domain.Product{}
	}
	return uc.catalog.Products()
}

func (uc *UseCase) view(ctx context.Context, fn func(tx repository.Tx) error) error {
	return domain.Unavailable(uc.store.View(ctx, fn))
}

func (uc *UseCase) update(ctx context.Context, fn func(tx repository.Tx) error) error {
	return domain.Unavailable(uc.store.Update(ctx, fn))
}

// publish is best effort: a lost event never fails the operation that caused it.
func (uc *UseCase) publish(ctx context.Context, event domain.Event) {
	if err := uc.events.Publish(ctx, event); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("event publish failed",
			zap.String("event", event.Name),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err))
	}
}

func requireCustomer(tx repository.Tx, customerID string) (*domain.Customer, error) {
	customer, err := repository.CustomerRecords.Get(tx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound
	}
	return customer, nil
}
