package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/interceptor/repository"
)

// updateLockKey is the advisory lock serializing every Update.
const updateLockKey int64 = 0x1c0ffee

type store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store over the records table.
func NewStore(pool *pgxpool.Pool) repository.Store {
	return &store{pool: pool}
}

func (s *store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(ptx pgx.Tx) error {
		return fn(&tx{ctx: ctx, tx: ptx})
	})
}

func (s *store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(ptx pgx.Tx) error {
		if _, err := ptx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, updateLockKey); err != nil {
			return err
		}
		return fn(&tx{ctx: ctx, tx: ptx})
	})
}

func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *store) Close() error {
	s.pool.Close()
	return nil
}

type tx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *tx) Get(p repository.Partition, key string) ([]byte, error) {
	const query = `
	SELECT payload
	FROM records
	WHERE partition = $1 AND id = $2
	`
	var payload []byte
	if err := t.tx.QueryRow(t.ctx, query, string(p), key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

func (t *tx) Put(p repository.Partition, key string, value []byte) error {
	const query = `
	INSERT INTO records (partition, id, payload, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())
	ON CONFLICT (partition, id) DO UPDATE
	SET payload = EXCLUDED.payload,
		updated_at = NOW()
	`
	_, err := t.tx.Exec(t.ctx, query, string(p), key, string(value))
	return err
}

func (t *tx) Delete(p repository.Partition, key string) error {
	const query = `DELETE FROM records WHERE partition = $1 AND id = $2`
	_, err := t.tx.Exec(t.ctx, query, string(p), key)
	return err
}

func (t *tx) ForEach(p repository.Partition, fn func(key string, value []byte) error) error {
	const query = `
	SELECT id, payload
	FROM records
	WHERE partition = $1
	ORDER BY created_at, id
	`
	rows, err := t.tx.Query(t.ctx, query, string(p))
	if err != nil {
		return err
	}
	defer rows.Close()

	type entry struct {
		key   string
		value []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.value); err != nil {
			return err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	// rows must be drained before fn may issue queries on the same tx
	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) NextSequence(p repository.Partition) (uint64, error) {
	const query = `
	INSERT INTO record_sequences (partition, value)
	VALUES ($1, 1)
	ON CONFLICT (partition) DO UPDATE
	SET value = record_sequences.value + 1
	RETURNING value
	`
	var n int64
	if err := t.tx.QueryRow(t.ctx, query, string(p)).Scan(&n); err != nil {
		return 0, err
	}
	return uint64(n), nil
}
