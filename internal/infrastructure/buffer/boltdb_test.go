package buffer

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/interceptor/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func item(id string, at time.Time) Item {
	return Item{Event: domain.Event{ID: id, Name: domain.EventCustomerCreated}, Timestamp: at}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Event.ID)
	}
	return out
}

func TestEnqueueOrdersByTimestamp(t *testing.T) {
	s := openStore(t)
	base := time.Now()
	require.NoError(t, s.Enqueue(item("late", base.Add(time.Second))))
	require.NoError(t, s.Enqueue(item("early", base)))
	require.NoError(t, s.Enqueue(Item{Event: domain.Event{ID: "stamped"}}))

	items, err := s.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "stamped", "late"}, ids(items))

	items, err = s.GetBatch(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"early"}, ids(items))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestRemove(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Enqueue(item("a", time.Now())))

	items, err := s.GetBatch(0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, s.Remove(items[0]))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRetryReplacesItem(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Enqueue(item("a", time.Now().Add(-time.Minute))))
	items, err := s.GetBatch(1)
	require.NoError(t, err)

	require.NoError(t, s.Retry(items[0], errors.New("broker down")))

	items, err = s.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Retries)
	assert.Equal(t, "broker down", items[0].LastError)
}

func TestCleanup(t *testing.T) {
	s := openStore(t)
	now := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Enqueue(item(id, now.Add(-time.Duration(3-i)*time.Hour))))
	}
	require.NoError(t, s.Enqueue(item("fresh", now)))

	removed, err := s.Cleanup(now.Add(-30 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	items, err := s.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids(items))
}

func TestNilStore(t *testing.T) {
	var s *Store
	assert.Error(t, s.Enqueue(Item{}))
	_, err := s.Size()
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
