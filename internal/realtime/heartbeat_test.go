package realtime

import (
	"testing"
	"time"
)

func TestSweep_TimeoutBoundary(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMonitor(time.Minute, 10*time.Second, nil)
	m.now = func() time.Time { return base }

	m.Update(7, 1)

	// One second inside the timeout: kept.
	m.sweep(base.Add(9 * time.Second))
	if m.Len() != 1 {
		t.Fatalf("record swept before timeout, len = %d", m.Len())
	}

	// One second past the timeout: removed.
	m.sweep(base.Add(11 * time.Second))
	if m.Len() != 0 {
		t.Fatalf("stale record survived sweep, len = %d", m.Len())
	}
}

func TestUpdate_RefreshResetsTheClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	m := NewMonitor(time.Minute, 10*time.Second, nil)
	m.now = func() time.Time { return now }

	m.Update(7, 1)
	now = base.Add(8 * time.Second)
	m.Update(7, 1)

	// 11s after the first update but only 3s after the refresh.
	m.sweep(base.Add(11 * time.Second))
	if m.Len() != 1 {
		t.Fatal("refreshed record was swept")
	}
}

func TestSweep_OnlyRemovesStaleEntries(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	m := NewMonitor(time.Minute, 10*time.Second, nil)
	m.now = func() time.Time { return now }

	m.Update(1, 1)
	now = base.Add(8 * time.Second)
	m.Update(2, 2)

	m.sweep(base.Add(11 * time.Second))
	if m.Len() != 1 {
		t.Fatalf("len after sweep = %d, want 1", m.Len())
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	m := NewMonitor(5*time.Millisecond, time.Second, nil)
	m.Start()
	m.Start() // second start is a no-op
	m.Update(1, 1)

	m.Stop()
	if m.Len() != 0 {
		t.Fatal("records not cleared on stop")
	}
	// Stop on a stopped monitor is safe.
	m.Stop()

	// The monitor can be started again after a stop.
	m.Start()
	m.Stop()
}
