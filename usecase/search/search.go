// Package search answers ad-hoc full-text queries over every stored record.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/pkg/logger"
	"github.com/fastygo/interceptor/repository"
)

// TypeField tags each hit with the singular name of its partition.
const TypeField = "type"

// Result is a matching record's fields plus its TypeField tag.
type Result map[string]any

type UseCase struct {
	store      repository.Store
	partitions []repository.Partition
	logger     *zap.Logger
}

// New searches the given partitions, or every partition when none are given.
func New(store repository.Store, logger *zap.Logger, partitions ...repository.Partition) *UseCase {
	if len(partitions) == 0 {
		partitions = repository.Partitions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:      store,
		partitions: partitions,
		logger:     logger,
	}
}

// Search returns every record with a string field containing at least one
// of the whitespace-separated, case-insensitive terms in query. Partitions
// are scanned concurrently; hits are grouped by partition in search order.
func (uc *UseCase) Search(ctx context.Context, query string) ([]Result, error) {
	terms := Terms(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}

	hits := make([][]Result, len(uc.partitions))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range uc.partitions {
		g.Go(func() error {
			found, err := uc.scan(gctx, p, terms)
			if err != nil {
				return err
			}
			hits[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.Unavailable(err)
	}

	out := make([]Result, 0)
	for _, h := range hits {
		out = append(out, h...)
	}
	logger.WithRequestID(ctx, uc.logger).Debug("search",
		zap.Strings("terms", terms),
		zap.Int("hits", len(out)))
	return out, nil
}

func (uc *UseCase) scan(ctx context.Context, p repository.Partition, terms []string) ([]Result, error) {
	var found []Result
	err := uc.store.View(ctx, func(tx repository.Tx) error {
		return tx.ForEach(p, func(key string, value []byte) error {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("corrupt %s record %q", p.Kind(), key), err)
			}
			if !Matches(Build(decoded), terms) {
				return nil
			}
			found = append(found, tag(decoded, p))
			return nil
		})
	})
	return found, err
}

func tag(decoded any, p repository.Partition) Result {
	fields, ok := decoded.(map[string]any)
	if !ok {
		fields = map[string]any{"value": decoded}
	}
	res := make(Result, len(fields)+1)
	for k, v := range fields {
		res[k] = v
	}
	res[TypeField] = p.Kind()
	return res
}
