package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/interceptor/repository"
)

// ErrConflict is returned when an Update lost every optimistic retry.
var ErrConflict = errors.New("redis store: too many concurrent updates")

type reader interface {
	Get(ctx context.Context, key string) *redislib.StringCmd
	HGet(ctx context.Context, key, field string) *redislib.StringCmd
	HGetAll(ctx context.Context, key string) *redislib.MapStringStringCmd
}

type store struct {
	client     *redislib.Client
	prefix     string
	maxRetries int
}

// NewStore creates a Redis-backed Store keeping one hash per partition.
// Updates WATCH every partition key so they are serializable across processes.
func NewStore(client *redislib.Client, prefix string, maxRetries int) repository.Store {
	if prefix == "" {
		prefix = "interceptor:"
	}
	if maxRetries <= 0 {
		maxRetries = 10
	}
	return &store{
		client:     client,
		prefix:     prefix,
		maxRetries: maxRetries,
	}
}

func (s *store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(&tx{ctx: ctx, store: s, r: s.client})
}

func (s *store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	keys := s.watchKeys()
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redislib.Tx) error {
			t := &tx{ctx: ctx, store: s, r: rtx, writable: true}
			if err := fn(t); err != nil {
				return err
			}
			if !t.dirty() {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, t.flush)
			return err
		}, keys...)
		if errors.Is(err, redislib.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *store) Close() error {
	return s.client.Close()
}

func (s *store) hashKey(p repository.Partition) string {
	return fmt.Sprintf("%srecords:%s", s.prefix, p)
}

func (s *store) seqKey(p repository.Partition) string {
	return fmt.Sprintf("%sseq:%s", s.prefix, p)
}

func (s *store) watchKeys() []string {
	keys := make([]string, 0, 2*len(repository.Partitions))
	for _, p := range repository.Partitions {
		keys = append(keys, s.hashKey(p), s.seqKey(p))
	}
	return keys
}

// tx buffers writes until commit; reads see the transaction's own writes.
type tx struct {
	ctx      context.Context
	store    *store
	r        reader
	writable bool

	writes map[repository.Partition]map[string]*string
	seqs   map[repository.Partition]uint64
}

func (t *tx) dirty() bool {
	return len(t.writes) > 0 || len(t.seqs) > 0
}

func (t *tx) Get(p repository.Partition, key string) ([]byte, error) {
	if w, ok := t.writes[p][key]; ok {
		if w == nil {
			return nil, nil
		}
		return []byte(*w), nil
	}
	v, err := t.r.HGet(t.ctx, t.store.hashKey(p), key).Result()
	if errors.Is(err, redislib.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (t *tx) stage(p repository.Partition, key string, value *string) error {
	if !t.writable {
		return fmt.Errorf("write to %s in read-only transaction", p)
	}
	if t.writes == nil {
		t.writes = make(map[repository.Partition]map[string]*string)
	}
	if t.writes[p] == nil {
		t.writes[p] = make(map[string]*string)
	}
	t.writes[p][key] = value
	return nil
}

func (t *tx) Put(p repository.Partition, key string, value []byte) error {
	v := string(value)
	return t.stage(p, key, &v)
}

func (t *tx) Delete(p repository.Partition, key string) error {
	return t.stage(p, key, nil)
}

// ForEach visits records in key order.
func (t *tx) ForEach(p repository.Partition, fn func(key string, value []byte) error) error {
	all, err := t.r.HGetAll(t.ctx, t.store.hashKey(p)).Result()
	if err != nil {
		return err
	}
	for k, w := range t.writes[p] {
		if w == nil {
			delete(all, k)
			continue
		}
		all[k] = *w
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, []byte(all[k])); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) NextSequence(p repository.Partition) (uint64, error) {
	if !t.writable {
		return 0, fmt.Errorf("sequence of %s in read-only transaction", p)
	}
	if t.seqs == nil {
		t.seqs = make(map[repository.Partition]uint64)
	}
	cur, ok := t.seqs[p]
	if !ok {
		raw, err := t.r.Get(t.ctx, t.store.seqKey(p)).Result()
		switch {
		case errors.Is(err, redislib.Nil):
		case err != nil:
			return 0, err
		default:
			if cur, err = strconv.ParseUint(raw, 10, 64); err != nil {
				return 0, err
			}
		}
	}
	cur++
	t.seqs[p] = cur
	return cur, nil
}

func (t *tx) flush(pipe redislib.Pipeliner) error {
	for p, writes := range t.writes {
		key := t.store.hashKey(p)
		for field, w := range writes {
			if w == nil {
				pipe.HDel(t.ctx, key, field)
				continue
			}
			pipe.HSet(t.ctx, key, field, *w)
		}
	}
	for p, n := range t.seqs {
		pipe.Set(t.ctx, t.store.seqKey(p), n, 0)
	}
	return nil
}
