package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agora-ai/agora/internal/domain"
)

// ErrDebateRunning is returned by Start when the debate already has a
// running runtime.
var ErrDebateRunning = errors.New("debate already running")

const (
	DefaultTick          = 1 * time.Second
	DefaultPauseInterval = 500 * time.Millisecond
)

// Announcer receives runtime status transitions for fan-out to watchers.
// *realtime.Registry satisfies it.
type Announcer interface {
	AnnounceStatus(debateID int64, status string)
}

// runtime holds the control-loop state for one debate: its status, the
// cooperative pause/stop signals, and the handle of the live loop task.
type runtime struct {
	id     int64
	status domain.Status
	stop   atomic.Bool
	pause  atomic.Bool

	// done is non-nil exactly while a loop goroutine is live; cancel
	// aborts that goroutine's context. Both are owned by the manager.
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns at most one background control loop per debate id and
// serializes all structural mutations through a single mutex.
type Manager struct {
	mu       sync.Mutex
	runtimes map[int64]*runtime

	tick          time.Duration
	pauseInterval time.Duration
	announcer     Announcer
	logger        *slog.Logger
}

type Config struct {
	// Tick is the sleep representing one unit of debate progress.
	Tick time.Duration
	// PauseInterval is the re-check sleep while paused.
	PauseInterval time.Duration
	Announcer     Announcer
	Logger        *slog.Logger
}

func NewManager(cfg Config) *Manager {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.PauseInterval <= 0 {
		cfg.PauseInterval = DefaultPauseInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		runtimes:      make(map[int64]*runtime),
		tick:          cfg.Tick,
		pauseInterval: cfg.PauseInterval,
		announcer:     cfg.Announcer,
		logger:        cfg.Logger,
	}
}

// Start transitions the debate's runtime to running and spawns its
// control loop if none is live. Starting an already-running debate
// returns ErrDebateRunning. A finished runtime is restarted fresh.
func (m *Manager) Start(id int64) error {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	if ok && rt.status == domain.StatusRunning {
		m.mu.Unlock()
		return ErrDebateRunning
	}
	if !ok {
		rt = &runtime{id: id}
		m.runtimes[id] = rt
	}
	rt.stop.Store(false)
	rt.pause.Store(false)
	rt.status = domain.StatusRunning

	if rt.done == nil {
		ctx, cancel := context.WithCancel(context.Background())
		rt.cancel = cancel
		rt.done = make(chan struct{})
		go m.run(ctx, rt, rt.done)
	}
	m.mu.Unlock()

	m.announce(id, domain.StatusRunning)
	return nil
}

// Pause sets the pause signal. Unknown ids are a no-op, not an error.
// The loop task keeps running and re-checks on a short interval.
func (m *Manager) Pause(id int64) {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	rt.pause.Store(true)
	rt.status = domain.StatusPaused
	m.mu.Unlock()

	m.announce(id, domain.StatusPaused)
}

// Resume clears the pause signal. Unknown ids are a no-op.
func (m *Manager) Resume(id int64) {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	rt.pause.Store(false)
	rt.status = domain.StatusRunning
	m.mu.Unlock()

	m.announce(id, domain.StatusRunning)
}

// Stop sets the stop signal, cancels the loop task, and waits for it to
// finish before returning. Cancellation is a clean outcome, never an
// error. Unknown ids are a no-op.
func (m *Manager) Stop(id int64) {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	rt.stop.Store(true)
	rt.pause.Store(false)
	rt.status = domain.StatusFinished
	cancel, done := rt.cancel, rt.done
	rt.cancel, rt.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	m.announce(id, domain.StatusFinished)
}

// Remove stops the debate's runtime and erases its registry entry.
func (m *Manager) Remove(id int64) {
	m.Stop(id)
	m.mu.Lock()
	delete(m.runtimes, id)
	m.mu.Unlock()
}

// CleanupAll removes every known runtime; called at process shutdown.
func (m *Manager) CleanupAll() {
	m.mu.Lock()
	ids := make([]int64, 0, len(m.runtimes))
	for id := range m.runtimes {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Remove(id)
	}
}

// Status reports the runtime status for a debate id, and whether a
// runtime exists for it at all.
func (m *Manager) Status(id int64) (domain.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.runtimes[id]
	if !ok {
		return domain.StatusDraft, false
	}
	return rt.status, true
}

// loopLive reports whether a control loop goroutine is live for the id.
func (m *Manager) loopLive(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.runtimes[id]
	return ok && rt.done != nil
}

// run is the cooperative control loop: exit on stop, idle on pause,
// otherwise sleep one tick of debate progress. Turn content is driven by
// callers outside this loop.
func (m *Manager) run(ctx context.Context, rt *runtime, done chan struct{}) {
	defer close(done)
	m.logger.Info("debate runtime started", "debate_id", rt.id)
	defer m.logger.Info("debate runtime stopped", "debate_id", rt.id)

	for {
		if rt.stop.Load() {
			return
		}
		interval := m.tick
		if rt.pause.Load() {
			interval = m.pauseInterval
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (m *Manager) announce(id int64, status domain.Status) {
	if m.announcer != nil {
		m.announcer.AnnounceStatus(id, status.String())
	}
}
