package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/spinlab-sim/spinlab/internal/analysis"
	"github.com/spinlab-sim/spinlab/internal/lattice"
	"github.com/spinlab-sim/spinlab/internal/render"
)

// SnapshotSink persists rendered lattice frames under a label. Sinks are
// injected; the engine defines no image format of its own.
type SnapshotSink interface {
	Persist(f *render.Frame, label string) error
}

// Options configures a session. Zero values pick sensible defaults.
type Options struct {
	Temperature float64
	Window      int     // aggregation window length, default 60
	Seed        int64   // trial stream seed
	MaxRate     float64 // trials/second throttle; 0 runs flat out
	Snapshots   SnapshotSink
	Logger      *slog.Logger
}

// Session wires a lattice to the hot loop, the gated maintenance tasks,
// the stats windows, and the sweep controller.
type Session struct {
	state *State
	loop  *Loop
	log   *slog.Logger
	sink  SnapshotSink
	aux   *rand.Rand // reset/sweep randomness, decoupled from the trial stream

	rateWin *Window
	magWin  *Window

	frameGate *Gate
	rateGate  *Gate
	magGate   *Gate

	frame atomic.Pointer[render.Frame]
}

func NewSession(lat lattice.Lattice, opts Options) (*Session, error) {
	if lat == nil {
		return nil, errors.New("engine: nil lattice")
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var limit *rate.Limiter
	if opts.MaxRate > 0 {
		limit = rate.NewLimiter(rate.Limit(opts.MaxRate), int(opts.MaxRate/10)+1)
	}

	st := NewState(lat, opts.Temperature)
	s := &Session{
		state:     st,
		log:       log,
		sink:      opts.Snapshots,
		aux:       rand.New(rand.NewSource(opts.Seed + 1)),
		rateWin:   NewWindow(opts.Window),
		magWin:    NewWindow(opts.Window),
		frameGate: NewGate("frame", log),
		rateGate:  NewGate("throughput", log),
		magGate:   NewGate("magnetization", log),
	}
	s.loop = NewLoop(st, DefaultStepSource(rand.New(rand.NewSource(opts.Seed))), log, limit)
	return s, nil
}

func (s *Session) State() *State { return s.state }

// Run drives the hot loop until ctx ends or a trial fails. Call once.
func (s *Session) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.state.Wake()
	}()
	w, h := s.state.Size()
	s.log.Info("session running",
		"model", s.state.Lattice().Model(),
		"size", w*h,
		"temp", s.state.Temperature())
	return s.loop.Run(ctx)
}

// FrameTick dispatches the per-frame maintenance tasks. Each runs behind
// its own gate: a task still in flight from an earlier frame is skipped,
// never queued.
func (s *Session) FrameTick() {
	s.frameGate.TryRun(s.captureFrame)
	s.rateGate.TryRun(s.sampleThroughput)
	s.magGate.TryRun(s.sampleMagnetization)
}

func (s *Session) captureFrame() error {
	s.frame.Store(render.Capture(s.state.Lattice()))
	return nil
}

func (s *Session) sampleThroughput() error {
	n := s.state.TakeSteps()
	if v, ok := s.rateWin.Record(float64(n)); ok {
		s.state.publishRate(v)
	}
	return nil
}

func (s *Session) sampleMagnetization() error {
	m := analysis.Magnetization(s.state.Lattice())
	if v, ok := s.magWin.Record(m); ok {
		s.state.publishMagnetization(v)
	}
	return nil
}

// Frame returns the last published lattice frame, nil before the first
// capture. The pointer is swapped whole, never mutated in place.
func (s *Session) Frame() *render.Frame {
	return s.frame.Load()
}

// MagHistory returns the magnetization sample window, oldest first.
func (s *Session) MagHistory() []float64 {
	return s.magWin.Snapshot()
}

// RateHistory returns the steps-per-frame sample window, oldest first.
func (s *Session) RateHistory() []float64 {
	return s.rateWin.Snapshot()
}

// Snapshot renders the current lattice and hands it to the configured
// sink. Without a sink it is a no-op.
func (s *Session) Snapshot(label string) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Persist(render.Capture(s.state.Lattice()), label)
}

// Paint applies the shared brush centered on lattice coordinates (x, y).
// Spin paints go through per-site atomics and may interleave with live
// trials; defect paints keep the active count coherent. The brush does
// not wrap around the boundary.
func (s *Session) Paint(x, y int) {
	lat := s.state.Lattice()
	w, h := lat.Width(), lat.Height()
	if x < 0 || x >= w || y < 0 || y >= h {
		return
	}
	radius, mode := s.state.Brush()
	rr := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > rr {
				continue
			}
			px, py := x+dx, y+dy
			if px < 0 || px >= w || py < 0 || py >= h {
				continue
			}
			i := py*w + px
			switch mode {
			case BrushUp:
				lat.SetValue(i, 1)
			case BrushDown:
				lat.SetValue(i, -1)
			case BrushFlip:
				lat.SetValue(i, -lat.Value(i))
			case BrushDefect:
				lat.SetDefect(i, true)
			case BrushHeal:
				lat.SetDefect(i, false)
			}
		}
	}
}

// Reset redraws every site from the hot-start distribution.
func (s *Session) Reset() error {
	return s.state.Reconfigure(func(lat lattice.Lattice) (lattice.Lattice, error) {
		lat.Randomize(s.aux)
		return nil, nil
	})
}

// ToggleWeighted switches the frozen random bond weights on or off.
func (s *Session) ToggleWeighted() error {
	return s.state.Reconfigure(func(lat lattice.Lattice) (lattice.Lattice, error) {
		lat.SetWeighted(!lat.Weighted())
		return nil, nil
	})
}

// SwapLattice replaces the substrate wholesale: new model, dimensions,
// seed, the lot. The hot loop rebuilds its step on resume.
func (s *Session) SwapLattice(spec lattice.Spec) error {
	return s.state.Reconfigure(func(lattice.Lattice) (lattice.Lattice, error) {
		return lattice.New(spec)
	})
}
