package engine

import (
	"log/slog"
	"sync/atomic"
)

// Gate serializes a named background task: at most one invocation is in
// flight at any time, extra triggers are dropped rather than queued.
type Gate struct {
	name string
	log  *slog.Logger
	busy atomic.Bool
}

func NewGate(name string, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{name: name, log: log}
}

// TryRun dispatches task on its own goroutine unless a previous run is
// still in flight, and reports whether it was started. Errors and panics
// are logged and isolated; the gate is released on every exit path.
func (g *Gate) TryRun(task func() error) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.log.Error("task panicked", "task", g.name, "panic", r)
			}
			g.busy.Store(false)
		}()
		if err := task(); err != nil {
			g.log.Error("task failed", "task", g.name, "error", err)
		}
	}()
	return true
}

// Busy reports whether a run is currently in flight.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
