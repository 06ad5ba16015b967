// Package storetest is the behavioural contract every repository.Store backend must meet.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/repository"
)

// Opener returns an empty store; the suite closes it.
type Opener func(t *testing.T) repository.Store

// Run executes the contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"GetMissingReturnsNil", testGetMissing},
		{"PutThenGet", testPutGet},
		{"PartitionsAreIndependent", testPartitionsIndependent},
		{"ForEachVisitsEveryRecord", testForEach},
		{"Delete", testDelete},
		{"FailedUpdateRollsBack", testRollback},
		{"SequenceIncreases", testSequence},
		{"ConcurrentUpdatesSerialize", testConcurrentUpdates},
		{"TypedRecordsAndMessageSize", testRecords},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func put(t *testing.T, s repository.Store, p repository.Partition, key, value string) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), func(tx repository.Tx) error {
		return tx.Put(p, key, []byte(value))
	}))
}

func get(t *testing.T, s repository.Store, p repository.Partition, key string) []byte {
	t.Helper()
	var out []byte
	require.NoError(t, s.View(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = tx.Get(p, key)
		return err
	}))
	return out
}

func testGetMissing(t *testing.T, s repository.Store) {
	for _, p := range repository.Partitions {
		assert.Nil(t, get(t, s, p, "nope"), p)
	}
	require.NoError(t, s.Ping(context.Background()))
}

func testPutGet(t *testing.T, s repository.Store) {
	put(t, s, repository.Customers, "cust1", `{"id":"cust1","name":"Jane"}`)
	assert.JSONEq(t, `{"id":"cust1","name":"Jane"}`, string(get(t, s, repository.Customers, "cust1")))

	put(t, s, repository.Customers, "cust1", `{"id":"cust1","name":"Janet"}`)
	assert.JSONEq(t, `{"id":"cust1","name":"Janet"}`, string(get(t, s, repository.Customers, "cust1")))
}

func testPartitionsIndependent(t *testing.T, s repository.Store) {
	put(t, s, repository.Quotes, "1", `{"kind":"quote"}`)
	put(t, s, repository.Messages, "1", `{"kind":"message"}`)

	assert.JSONEq(t, `{"kind":"quote"}`, string(get(t, s, repository.Quotes, "1")))
	assert.JSONEq(t, `{"kind":"message"}`, string(get(t, s, repository.Messages, "1")))
	assert.Nil(t, get(t, s, repository.Policies, "1"))
}

func testForEach(t *testing.T, s repository.Store) {
	want := map[string]string{}
	for i := 1; i <= 5; i++ {
		key := "claim" + strconv.Itoa(i)
		want[key] = `{"id":"` + key + `"}`
		put(t, s, repository.Claims, key, want[key])
	}
	put(t, s, repository.Policies, "policy1", `{}`)

	got := map[string]string{}
	require.NoError(t, s.View(context.Background(), func(tx repository.Tx) error {
		return tx.ForEach(repository.Claims, func(key string, value []byte) error {
			got[key] = string(value)
			return nil
		})
	}))
	require.Len(t, got, len(want))
	for k, v := range want {
		assert.JSONEq(t, v, got[k])
	}
}

func testDelete(t *testing.T, s repository.Store) {
	put(t, s, repository.Quotes, "quote1", `{}`)
	require.NoError(t, s.Update(context.Background(), func(tx repository.Tx) error {
		if err := tx.Delete(repository.Quotes, "quote1"); err != nil {
			return err
		}
		return tx.Delete(repository.Quotes, "never-stored")
	}))
	assert.Nil(t, get(t, s, repository.Quotes, "quote1"))
}

func testRollback(t *testing.T, s repository.Store) {
	put(t, s, repository.Policies, "policy1", `{"v":1}`)
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(tx repository.Tx) error {
		if err := tx.Put(repository.Policies, "policy1", []byte(`{"v":2}`)); err != nil {
			return err
		}
		if err := tx.Put(repository.Policies, "policy2", []byte(`{"v":1}`)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.JSONEq(t, `{"v":1}`, string(get(t, s, repository.Policies, "policy1")))
	assert.Nil(t, get(t, s, repository.Policies, "policy2"))
}

func testSequence(t *testing.T, s repository.Store) {
	next := func(p repository.Partition) uint64 {
		var n uint64
		require.NoError(t, s.Update(context.Background(), func(tx repository.Tx) error {
			var err error
			n, err = tx.NextSequence(p)
			return err
		}))
		return n
	}

	first := next(repository.Customers)
	second := next(repository.Customers)
	assert.Positive(t, first)
	assert.Greater(t, second, first)
	assert.Positive(t, next(repository.Messages))
}

func testConcurrentUpdates(t *testing.T, s repository.Store) {
	const workers = 8
	put(t, s, repository.Messages, "counter", "0")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(context.Background(), func(tx repository.Tx) error {
				raw, err := tx.Get(repository.Messages, "counter")
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(string(raw))
				if err != nil {
					return err
				}
				return tx.Put(repository.Messages, "counter", []byte(strconv.Itoa(n+1)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, strconv.Itoa(workers), string(get(t, s, repository.Messages, "counter")))
}

func testRecords(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		for _, payload := range []string{`{"a":1}`, `"hello"`} {
			id, err := repository.NextID(tx, repository.Messages)
			if err != nil {
				return err
			}
			msg := &domain.Message{ID: id, Payload: json.RawMessage(payload)}
			if err := repository.MessageRecords.Put(tx, id, msg); err != nil {
				return err
			}
		}
		return repository.CustomerRecords.Put(tx, "cust1", &domain.Customer{ID: "cust1", Name: "Jane Doe"})
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		size, err := repository.MessageSize(tx)
		require.NoError(t, err)
		assert.Equal(t, len(`{"a":1}`)+len(`"hello"`), size)

		customer, err := repository.CustomerRecords.Get(tx, "cust1")
		require.NoError(t, err)
		require.NotNil(t, customer)
		assert.Equal(t, "Jane Doe", customer.Name)

		missing, err := repository.CustomerRecords.Get(tx, "cust2")
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	}))
}
