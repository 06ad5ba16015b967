package usecase

import (
	"context"

	"github.com/fastygo/interceptor/domain"
)

// EventPublisher abstracts the event sink so use cases stay transport-agnostic.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
