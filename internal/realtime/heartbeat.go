package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type heartbeatKey struct {
	debateID int64
	connID   int64
}

// Monitor keeps last-seen timestamps per connection and periodically
// evicts entries older than the timeout. It is bookkeeping only: the
// sweep never closes transports or touches the connection registry.
type Monitor struct {
	mu      sync.Mutex
	records map[heartbeatKey]time.Time

	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		records:  make(map[heartbeatKey]time.Time),
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// Start launches the sweep loop. Calling Start on a running monitor is a
// no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)
}

// Stop cancels the sweep loop, waits for it to exit, and clears all
// records.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	m.mu.Lock()
	m.records = make(map[heartbeatKey]time.Time)
	m.mu.Unlock()
}

// Update records the current time as the last heartbeat for a connection.
func (m *Monitor) Update(debateID, connID int64) {
	m.mu.Lock()
	m.records[heartbeatKey{debateID, connID}] = m.now()
	m.mu.Unlock()
}

// Len reports the number of tracked heartbeat records.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(m.now())
		}
	}
}

// sweep removes every record whose last-seen age exceeds the timeout.
// It only deletes bookkeeping; the connection registry stays untouched.
func (m *Monitor) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, seen := range m.records {
		if now.Sub(seen) > m.timeout {
			delete(m.records, key)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("swept stale heartbeats", "removed", removed, "remaining", len(m.records))
	}
}
