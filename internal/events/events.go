// Package events builds domain events and provides the logging sink.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/pkg/logger"
)

// New builds an event for the record identified by aggregateID.
func New(name, aggregateID, customerID string, payload any) domain.Event {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	return domain.Event{
		ID:          uuid.NewString(),
		Name:        name,
		AggregateID: aggregateID,
		CustomerID:  customerID,
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
	}
}

// LogPublisher writes every event to the structured log.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(base *zap.Logger) *LogPublisher {
	if base == nil {
		base = zap.NewNop()
	}
	return &LogPublisher{logger: base}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	logger.WithRequestID(ctx, p.logger).Info("event",
		zap.String("event", event.Name),
		zap.String("event_id", event.ID),
		zap.String("aggregate_id", event.AggregateID),
		zap.String("customer_id", event.CustomerID),
	)
	return nil
}
