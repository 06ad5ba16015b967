package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/internal/infrastructure/buffer"
	"github.com/fastygo/interceptor/usecase"
)

// RelayConfig controls how frequently the outbox is drained.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxRelay delivers events to a sink and parks the ones the sink rejects
// in the outbox until a later drain succeeds or retries run out.
type OutboxRelay struct {
	store  *buffer.Store
	sink   usecase.EventPublisher
	logger *zap.Logger
	cron   *cron.Cron
	cfg    RelayConfig
}

func NewOutboxRelay(store *buffer.Store, sink usecase.EventPublisher, logger *zap.Logger, cfg RelayConfig) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &OutboxRelay{
		store:  store,
		sink:   sink,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %s", cfg.Interval)
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = r.cron.AddFunc("@hourly", func() {
		removed, err := r.store.Cleanup(time.Now().Add(-r.cfg.Retention))
		if err != nil {
			r.logger.Warn("outbox cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			r.logger.Warn("expired outbox events dropped", zap.Int("count", removed))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *OutboxRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("outbox relay started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *OutboxRelay) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("outbox relay stopped")
}

// Publish tries the sink right away and falls back to the outbox.
func (r *OutboxRelay) Publish(ctx context.Context, event domain.Event) error {
	if r == nil || r.store == nil {
		return fmt.Errorf("outbox relay not configured")
	}
	err := r.sink.Publish(ctx, event)
	if err == nil {
		return nil
	}
	r.logger.Warn("event delivery failed, buffering", zap.String("event", event.Name), zap.Error(err))
	return r.store.Enqueue(buffer.Item{Event: event, Retries: 1, LastError: err.Error()})
}

// Drain delivers buffered events synchronously, oldest first.
func (r *OutboxRelay) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.sink.Publish(ctx, item.Event); err != nil {
			if item.Retries+1 >= r.cfg.MaxRetries {
				r.logger.Warn("dropping outbox event (max retries reached)",
					zap.String("event_id", item.Event.ID),
					zap.String("event", item.Event.Name),
					zap.Error(err))
				if rmErr := r.store.Remove(item); rmErr != nil {
					r.logger.Warn("failed to remove outbox event", zap.Error(rmErr))
				}
				continue
			}
			if err := r.store.Retry(item, err); err != nil {
				r.logger.Error("failed to requeue outbox event", zap.Error(err))
			}
			continue
		}

		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to purge delivered outbox event", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of buffered events.
func (r *OutboxRelay) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}

var _ usecase.EventPublisher = (*OutboxRelay)(nil)
