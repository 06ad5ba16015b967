package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/interceptor/repository"
	"github.com/fastygo/interceptor/repository/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		s, err := Open(filepath.Join(t.TempDir(), "store.db"))
		require.NoError(t, err)
		return s
	})
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.NextSequence(repository.Customers); err != nil {
			return err
		}
		return tx.Put(repository.Customers, "cust1", []byte(`{"id":"cust1"}`))
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		raw, err := tx.Get(repository.Customers, "cust1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"cust1"}`, string(raw))

		n, err := tx.NextSequence(repository.Customers)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), n)
		return nil
	}))
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Error(t, s.Ping(context.Background()))
}
