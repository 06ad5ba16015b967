// Package memory is the non-durable Store: records live for the process lifetime.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fastygo/interceptor/repository"
)

var ErrClosed = errors.New("memory store closed")

type partition struct {
	keys   []string
	values map[string][]byte
	seq    uint64
}

func newPartition() *partition {
	return &partition{values: make(map[string][]byte)}
}

func (p *partition) clone() *partition {
	c := &partition{
		keys:   append([]string(nil), p.keys...),
		values: make(map[string][]byte, len(p.values)),
		seq:    p.seq,
	}
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// Store keeps every partition in maps guarded by one lock. Writers work on
// private copies of the partitions they touch and swap them in on success.
type Store struct {
	mu     sync.RWMutex
	parts  map[repository.Partition]*partition
	closed bool
}

func NewStore() *Store {
	parts := make(map[repository.Partition]*partition, len(repository.Partitions))
	for _, p := range repository.Partitions {
		parts[p] = newPartition()
	}
	return &Store{parts: parts}
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&tx{store: s})
}

func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	t := &tx{store: s, writable: true, dirty: make(map[repository.Partition]*partition)}
	if err := fn(t); err != nil {
		return err
	}
	for name, p := range t.dirty {
		s.parts[name] = p
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type tx struct {
	store    *Store
	writable bool
	dirty    map[repository.Partition]*partition
}

func (t *tx) partition(name repository.Partition, write bool) (*partition, error) {
	if write && !t.writable {
		return nil, fmt.Errorf("write to %s in read-only transaction", name)
	}
	if p, ok := t.dirty[name]; ok {
		return p, nil
	}
	base, ok := t.store.parts[name]
	if !ok {
		return nil, fmt.Errorf("unknown partition %q", name)
	}
	if !write {
		return base, nil
	}
	p := base.clone()
	t.dirty[name] = p
	return p, nil
}

func (t *tx) Get(name repository.Partition, key string) ([]byte, error) {
	p, err := t.partition(name, false)
	if err != nil {
		return nil, err
	}
	v, ok := p.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (t *tx) Put(name repository.Partition, key string, value []byte) error {
	p, err := t.partition(name, true)
	if err != nil {
		return err
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append([]byte(nil), value...)
	return nil
}

func (t *tx) Delete(name repository.Partition, key string) error {
	p, err := t.partition(name, true)
	if err != nil {
		return err
	}
	if _, ok := p.values[key]; !ok {
		return nil
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (t *tx) ForEach(name repository.Partition, fn func(key string, value []byte) error) error {
	p, err := t.partition(name, false)
	if err != nil {
		return err
	}
	for _, k := range p.keys {
		if err := fn(k, append([]byte(nil), p.values[k]...)); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) NextSequence(name repository.Partition) (uint64, error) {
	p, err := t.partition(name, true)
	if err != nil {
		return 0, err
	}
	p.seq++
	return p.seq, nil
}

var _ repository.Store = (*Store)(nil)
