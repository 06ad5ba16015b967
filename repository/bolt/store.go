// Package bolt persists partitions as BoltDB buckets in a single local file.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/interceptor/repository"
)

// Store wraps BoltDB; every committed Update is fsynced before it returns.
type Store struct {
	db *bolt.DB
}

// Open initializes the BoltDB file and ensures a bucket exists per partition.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, p := range repository.Partitions {
			if _, err := tx.CreateBucketIfNotExists([]byte(p)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&tx{tx: btx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&tx{tx: btx})
	})
}

// Ping opens a read transaction to prove the file is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.View(ctx, func(repository.Tx) error { return nil })
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

type tx struct {
	tx *bolt.Tx
}

func (t *tx) bucket(p repository.Partition) (*bolt.Bucket, error) {
	b := t.tx.Bucket([]byte(p))
	if b == nil {
		return nil, fmt.Errorf("unknown partition %q", p)
	}
	return b, nil
}

func (t *tx) Get(p repository.Partition, key string) ([]byte, error) {
	b, err := t.bucket(p)
	if err != nil {
		return nil, err
	}
	v := b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	// bolt memory is only valid for the life of the transaction
	return append([]byte(nil), v...), nil
}

func (t *tx) Put(p repository.Partition, key string, value []byte) error {
	b, err := t.bucket(p)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), value)
}

func (t *tx) Delete(p repository.Partition, key string) error {
	b, err := t.bucket(p)
	if err != nil {
		return err
	}
	return b.Delete([]byte(key))
}

func (t *tx) ForEach(p repository.Partition, fn func(key string, value []byte) error) error {
	b, err := t.bucket(p)
	if err != nil {
		return err
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if err := fn(string(k), append([]byte(nil), v...)); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) NextSequence(p repository.Partition) (uint64, error) {
	b, err := t.bucket(p)
	if err != nil {
		return 0, err
	}
	return b.NextSequence()
}

var _ repository.Store = (*Store)(nil)
