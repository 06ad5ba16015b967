// Package messaging appends JSON payloads to the quota-capped message log.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/internal/events"
	"github.com/fastygo/interceptor/pkg/logger"
	"github.com/fastygo/interceptor/repository"
	"github.com/fastygo/interceptor/usecase"
)

type UseCase struct {
	store  repository.Store
	quota  int
	events usecase.EventPublisher
	now    func() time.Time
	logger *zap.Logger
}

// New builds the use case; a non-positive quota falls back to domain.MessageQuota.
func New(store repository.Store, quota int, publisher usecase.EventPublisher, logger *zap.Logger) *UseCase {
	if quota <= 0 {
		quota = domain.MessageQuota
	}
	if publisher == nil {
		publisher = usecase.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		quota:  quota,
		events: publisher,
		now:    time.Now,
		logger: logger,
	}
}

// Usage reports the aggregate payload size against the quota.
type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

// PostMessage stores payload unless doing so would push the aggregate size
// past the quota. A rejected payload leaves the store untouched.
func (uc *UseCase) PostMessage(ctx context.Context, payload []byte) (*domain.Message, error) {
	compact, err := normalize(payload)
	if err != nil {
		return nil, err
	}
	size := utf8.RuneCount(compact)

	var msg *domain.Message
	err = domain.Unavailable(uc.store.Update(ctx, func(tx repository.Tx) error {
		used, err := repository.MessageSize(tx)
		if err != nil {
			return err
		}
		if used+size > uc.quota {
			logger.WithRequestID(ctx, uc.logger).Warn("message rejected",
				zap.Int("used", used),
				zap.Int("size", size),
				zap.Int("limit", uc.quota))
			return domain.ErrQuotaExceeded
		}
		n, err := tx.NextSequence(repository.Messages)
		if err != nil {
			return err
		}
		msg = &domain.Message{
			ID:        repository.Messages.FormatID(n),
			Payload:   compact,
			CreatedAt: uc.now().UTC(),
		}
		return repository.MessageRecords.Put(tx, msg.ID, msg)
	}))
	if err != nil {
		return nil, err
	}
	if err := uc.events.Publish(ctx, events.New(domain.EventMessagePosted, msg.ID, "", map[string]any{"size": size})); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("event publish failed", zap.Error(err))
	}
	return msg, nil
}

func (uc *UseCase) ListMessages(ctx context.Context) ([]domain.Message, error) {
	var messages []domain.Message
	err := uc.store.View(ctx, func(tx repository.Tx) error {
		var err error
		messages, err = repository.MessageRecords.All(tx)
		return err
	})
	return messages, domain.Unavailable(err)
}

func (uc *UseCase) Usage(ctx context.Context) (Usage, error) {
	usage := Usage{Limit: uc.quota}
	err := uc.store.View(ctx, func(tx repository.Tx) error {
		messages, err := repository.MessageRecords.All(tx)
		if err != nil {
			return err
		}
		usage.Count = len(messages)
		for i := range messages {
			usage.Used += messages[i].PayloadSize()
		}
		return nil
	})
	return usage, domain.Unavailable(err)
}

func normalize(payload []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, domain.ErrEmptyMessage
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, domain.WrapError(domain.ErrCodeMalformedInput, domain.ErrInvalidJSON.Message, err)
	}
	// measure the form json.Marshal persists, which escapes <, > and &
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, compact.Bytes())
	return escaped.Bytes(), nil
}
