package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateSingleFlight(t *testing.T) {
	g := NewGate("test", discardLogger())

	var inFlight, maxInFlight, runs atomic.Int32
	slow := func() error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		runs.Add(1)
		return nil
	}

	// Several concurrent drivers hammer the same gate.
	var wg sync.WaitGroup
	for d := 0; d < 4; d++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				g.TryRun(slow)
				time.Sleep(100 * time.Microsecond)
			}
		}()
	}
	wg.Wait()

	waitUntil(t, time.Second, func() bool { return !g.Busy() })

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent executions = %d, want 1", got)
	}
	if runs.Load() == 0 {
		t.Error("no task execution ever started")
	}
}

func TestGateDropsWhileBusy(t *testing.T) {
	g := NewGate("test", discardLogger())

	release := make(chan struct{})
	started := make(chan struct{})
	if !g.TryRun(func() error {
		close(started)
		<-release
		return nil
	}) {
		t.Fatal("first TryRun refused an idle gate")
	}
	<-started

	if g.TryRun(func() error { return nil }) {
		t.Error("TryRun dispatched while a run was in flight")
	}
	if !g.Busy() {
		t.Error("Busy = false during an in-flight run")
	}

	close(release)
	waitUntil(t, time.Second, func() bool { return !g.Busy() })
}

func TestGateReleasedAfterError(t *testing.T) {
	g := NewGate("test", discardLogger())

	g.TryRun(func() error { return errors.New("boom") })
	waitUntil(t, time.Second, func() bool { return !g.Busy() })

	ran := make(chan struct{})
	if !g.TryRun(func() error { close(ran); return nil }) {
		t.Fatal("gate still held after a failed task")
	}
	<-ran
}

func TestGateReleasedAfterPanic(t *testing.T) {
	g := NewGate("test", discardLogger())

	g.TryRun(func() error { panic("maintenance gone wrong") })
	waitUntil(t, time.Second, func() bool { return !g.Busy() })

	ran := make(chan struct{})
	if !g.TryRun(func() error { close(ran); return nil }) {
		t.Fatal("gate still held after a panicking task")
	}
	<-ran
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
