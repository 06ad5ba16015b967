package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/internal/infrastructure/buffer"
	"github.com/fastygo/interceptor/usecase/messaging"
)

// Pinger is satisfied by every store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UsageReporter exposes message quota consumption.
type UsageReporter interface {
	Usage(ctx context.Context) (messaging.Usage, error)
}

type Monitor struct {
	store    Pinger
	upstream string
	client   *fasthttp.Client
	outbox   *buffer.Store
	usage    UsageReporter

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New builds a monitor. A nil dependency is reported as offline, except an
// empty upstream which is skipped.
func New(store Pinger, upstream string, outbox *buffer.Store, usage UsageReporter, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		upstream: upstream,
		client:   &fasthttp.Client{Name: "interceptor-monitor"},
		outbox:   outbox,
		usage:    usage,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start takes a first reading synchronously, then refreshes on every tick.
func (m *Monitor) Start() {
	m.refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the local store answered the last ping.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	outboxOK, outboxSize := m.checkOutbox()
	status := Status{
		Store:      m.checkStore(),
		Upstream:   m.checkUpstream(),
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		Messages:   m.checkMessages(),
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if prev.Store && !status.Store {
		m.logger.Warn("store went offline")
	}
}

func (m *Monitor) checkStore() bool {
	if m.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.store.Ping(ctx) == nil
}

// checkUpstream treats any HTTP response as reachable; only transport
// failures count as down.
func (m *Monitor) checkUpstream() bool {
	if m.upstream == "" {
		return false
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(m.upstream)
	req.Header.SetMethod(fasthttp.MethodHead)
	if err := m.client.DoTimeout(req, resp, 2*time.Second); err != nil {
		m.logger.Debug("upstream probe failed", zap.String("upstream", m.upstream), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}

func (m *Monitor) checkMessages() MessageUsage {
	if m.usage == nil {
		return MessageUsage{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	u, err := m.usage.Usage(ctx)
	if err != nil {
		m.logger.Warn("message usage check failed", zap.Error(err))
		return MessageUsage{}
	}
	return MessageUsage{Used: u.Used, Limit: u.Limit, Count: u.Count}
}
