package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fastygo/interceptor/internal/infrastructure/buffer"
	"github.com/fastygo/interceptor/usecase/messaging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pinger struct{ down atomic.Bool }

func (p *pinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("store closed")
	}
	return nil
}

type usage struct {
	u   messaging.Usage
	err error
}

func (u usage) Usage(context.Context) (messaging.Usage, error) { return u.u, u.err }

func TestStartTakesFirstReading(t *testing.T) {
	outbox, err := buffer.Open(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = outbox.Close() })

	m := New(&pinger{}, "", outbox, usage{u: messaging.Usage{Used: 42, Limit: 3000, Count: 2}}, 0, nil)
	m.Start()
	defer m.Stop()

	status := m.GetStatus()
	assert.True(t, status.Store)
	assert.True(t, m.IsOnline())
	assert.False(t, status.Upstream)
	assert.True(t, status.Outbox)
	assert.Zero(t, status.OutboxSize)
	assert.Equal(t, MessageUsage{Used: 42, Limit: 3000, Count: 2}, status.Messages)
	assert.False(t, status.LastCheck.IsZero())
}

func TestRefreshReportsFailures(t *testing.T) {
	p := &pinger{}
	m := New(p, "", nil, usage{err: errors.New("boom")}, 0, nil)
	m.refresh()
	require.True(t, m.IsOnline())

	p.down.Store(true)
	m.refresh()
	status := m.GetStatus()
	assert.False(t, status.Store)
	assert.False(t, status.Outbox)
	assert.Equal(t, MessageUsage{}, status.Messages)
}

func TestNilDependencies(t *testing.T) {
	m := New(nil, "", nil, nil, 0, nil)
	m.refresh()
	assert.False(t, m.IsOnline())
}

func TestStopIsIdempotent(t *testing.T) {
	m := New(&pinger{}, "", nil, nil, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
}
