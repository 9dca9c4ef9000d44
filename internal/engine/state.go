package engine

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// atomicFloat is a float64 with atomic load/store, packed into the bit
// pattern of a uint64.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64   { return math.Float64frombits(f.bits.Load()) }
func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

// Phase is where the hot loop currently is in its lifecycle, derived
// from the two run flags.
type Phase int

const (
	PhaseRunning  Phase = iota // stepping
	PhaseDraining              // stop requested, loop finishing its pass
	PhaseParked                // loop suspended, structure may be mutated
	PhaseResuming              // resume requested, loop not yet re-entered
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseParked:
		return "parked"
	case PhaseResuming:
		return "resuming"
	}
	return "unknown"
}

// BrushMode selects what the shared brush paints.
type BrushMode int32

const (
	BrushFlip BrushMode = iota
	BrushUp
	BrushDown
	BrushDefect
	BrushHeal
)

func (m BrushMode) String() string {
	switch m {
	case BrushFlip:
		return "flip"
	case BrushUp:
		return "up"
	case BrushDown:
		return "down"
	case BrushDefect:
		return "defect"
	case BrushHeal:
		return "heal"
	}
	return "unknown"
}

// Next cycles to the following brush mode.
func (m BrushMode) Next() BrushMode {
	return BrushMode((int32(m) + 1) % 5)
}

// State is the shared state of one simulation session. Flag transitions
// go through a mutex + condition variable so waiters block instead of
// spinning, while the flags themselves are atomics the hot loop can poll
// lock-free on every trial.
type State struct {
	mu   sync.Mutex
	cond *sync.Cond

	lat lattice.Lattice // swapped only under mu while the loop is parked

	shouldRun  atomic.Bool // any task may request; written under mu
	running    atomic.Bool // written only by the hot loop
	analysisOn atomic.Bool // sweep in flight

	temp  atomicFloat  // read by the hot loop every trial
	steps atomic.Int64 // raw trials since the throughput task last sampled

	rate atomicFloat // published steps/frame (windowed mean)
	mag  atomicFloat // published magnetization (windowed mean)

	brushRadius atomic.Int32
	brushMode   atomic.Int32

	reconf sync.Mutex // serializes reconfiguration requests
}

func NewState(lat lattice.Lattice, temp float64) *State {
	s := &State{lat: lat}
	s.cond = sync.NewCond(&s.mu)
	s.temp.Store(temp)
	s.shouldRun.Store(true)
	s.brushRadius.Store(2)
	return s
}

// Lattice returns the current lattice handle. Site access through it is
// atomic; the handle itself only changes inside Reconfigure.
func (s *State) Lattice() lattice.Lattice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lat
}

// Size returns the lattice dimensions.
func (s *State) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lat.Width(), s.lat.Height()
}

func (s *State) Temperature() float64     { return s.temp.Load() }
func (s *State) SetTemperature(t float64) { s.temp.Store(t) }

func (s *State) ShouldRun() bool       { return s.shouldRun.Load() }
func (s *State) Running() bool         { return s.running.Load() }
func (s *State) AnalysisRunning() bool { return s.analysisOn.Load() }

func (s *State) Phase() Phase {
	run := s.shouldRun.Load()
	on := s.running.Load()
	switch {
	case on && run:
		return PhaseRunning
	case on:
		return PhaseDraining
	case run:
		return PhaseResuming
	default:
		return PhaseParked
	}
}

// Pause asks the hot loop to drain. The loop parks at its next trial
// boundary; this call does not wait for it.
func (s *State) Pause() {
	s.mu.Lock()
	s.shouldRun.Store(false)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Resume lets a parked hot loop re-derive its step and continue.
func (s *State) Resume() {
	s.mu.Lock()
	s.shouldRun.Store(true)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Wake prods every goroutine blocked on the state's condition so it can
// re-check its predicate. Used to push context cancellation into the
// park wait.
func (s *State) Wake() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Reconfigure drains the hot loop, calls mutate while no trial is
// executing, and resumes. A non-nil lattice returned by mutate replaces
// the session lattice (resize, model swap); returning nil keeps the
// current one. The loop rebuilds its step on resume, so the swap takes
// effect immediately.
//
// Concurrent calls are serialized. The loop resumes even when mutate
// fails; partial in-place edits are not rolled back. mutate runs with
// the state lock held and must not call back into State.
func (s *State) Reconfigure(mutate func(lattice.Lattice) (lattice.Lattice, error)) error {
	s.reconf.Lock()
	defer s.reconf.Unlock()

	s.Pause()

	s.mu.Lock()
	for s.running.Load() {
		s.cond.Wait()
	}
	next, err := mutate(s.lat)
	if next != nil {
		s.lat = next
	}
	s.mu.Unlock()

	s.Resume()
	return err
}

// TakeSteps returns the raw trial count accumulated since the last call
// and resets it. Only the gated throughput task calls this.
func (s *State) TakeSteps() int64 {
	return s.steps.Swap(0)
}

func (s *State) StepsPerFrame() float64 { return s.rate.Load() }
func (s *State) Magnetization() float64 { return s.mag.Load() }

func (s *State) publishRate(v float64)          { s.rate.Store(v) }
func (s *State) publishMagnetization(v float64) { s.mag.Store(v) }

// Brush returns the shared brush parameters.
func (s *State) Brush() (radius int, mode BrushMode) {
	return int(s.brushRadius.Load()), BrushMode(s.brushMode.Load())
}

func (s *State) SetBrush(radius int, mode BrushMode) {
	if radius < 0 {
		radius = 0
	} else if radius > 32 {
		radius = 32
	}
	s.brushRadius.Store(int32(radius))
	s.brushMode.Store(int32(mode))
}
