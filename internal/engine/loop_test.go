package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

func TestLoopFatalStepError(t *testing.T) {
	st := NewState(newIsing(t, 4, 4), 1)

	boom := errors.New("corrupted trial")
	n := 0
	src := StepSource(func(lattice.Lattice, *State) StepFunc {
		return func() error {
			n++
			if n == 3 {
				return boom
			}
			return nil
		}
	})
	loop := NewLoop(st, src, discardLogger(), nil)

	err := loop.Run(context.Background())
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("loop error = %v, want *StepError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("StepError does not unwrap to the trial failure: %v", err)
	}
	if stepErr.Trial != 3 {
		t.Errorf("failing trial index = %d, want 3", stepErr.Trial)
	}
	if st.Running() {
		t.Error("running flag still set after a fatal step")
	}
}

func TestLoopParksAndResumes(t *testing.T) {
	st := NewState(newIsing(t, 4, 4), 1)

	src := StepSource(func(lattice.Lattice, *State) StepFunc {
		return func() error { return nil }
	})
	loop := NewLoop(st, src, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	waitUntil(t, time.Second, st.Running)

	st.Pause()
	waitUntil(t, time.Second, func() bool { return !st.Running() })
	if got := st.Phase(); got != PhaseParked {
		t.Errorf("phase after drain = %v, want parked", got)
	}

	// The park is a real suspension: the counter must stop moving.
	st.TakeSteps()
	time.Sleep(10 * time.Millisecond)
	if got := st.TakeSteps(); got != 0 {
		t.Errorf("parked loop still ran %d trials", got)
	}

	st.Resume()
	waitUntil(t, time.Second, st.Running)
	waitUntil(t, time.Second, func() bool { return st.TakeSteps() > 0 })

	cancel()
	st.Wake()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("loop exit error = %v, want context.Canceled", err)
	}
}

func TestLoopRebranchesOnResume(t *testing.T) {
	st := NewState(newIsing(t, 4, 4), 1)

	var branches atomic.Int32
	src := StepSource(func(lattice.Lattice, *State) StepFunc {
		branches.Add(1)
		return func() error { return nil }
	})
	loop := NewLoop(st, src, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	waitUntil(t, time.Second, st.Running)
	if got := branches.Load(); got != 1 {
		t.Fatalf("branches after start = %d, want 1", got)
	}

	if err := st.Reconfigure(func(lattice.Lattice) (lattice.Lattice, error) { return nil, nil }); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	waitUntil(t, time.Second, st.Running)
	if got := branches.Load(); got != 2 {
		t.Errorf("branches after reconfigure = %d, want 2", got)
	}

	cancel()
	st.Wake()
	<-done
}

func TestLoopCancelWhileParked(t *testing.T) {
	st := NewState(newIsing(t, 4, 4), 1)
	st.Pause()

	src := StepSource(func(lattice.Lattice, *State) StepFunc {
		return func() error { return nil }
	})
	loop := NewLoop(st, src, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	st.Wake()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("loop exit error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled loop never returned from its park")
	}
}
