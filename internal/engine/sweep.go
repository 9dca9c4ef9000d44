package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spinlab-sim/spinlab/internal/analysis"
	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// sweepEps absorbs float accumulation when deciding whether the end
// temperature is still in range.
const sweepEps = 1e-9

// SweepConfig describes a temperature sweep. Temperatures run ascending
// from Start to End inclusive in increments of Step.
type SweepConfig struct {
	Start float64
	End   float64
	Step  float64

	Equilibrate time.Duration // settle time before the first temperature
	Dwell       time.Duration // settle time after each temperature write
	Samples     int           // samples taken per temperature
	Gap         time.Duration // wait between samples

	Snapshots bool  // persist a tagged snapshot per temperature
	Distances []int // correlation lags; nil derives them from the lattice
}

// Validate reports the first configuration error. It runs before any
// flag is set, any wait happens, or any state is touched.
func (c SweepConfig) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("sweep step must be positive, got %f", c.Step)
	}
	if c.Start < 0 {
		return fmt.Errorf("sweep start temperature must be non-negative, got %f", c.Start)
	}
	if c.Start > c.End {
		return fmt.Errorf("sweep start %f exceeds end %f", c.Start, c.End)
	}
	if c.Samples < 1 {
		return fmt.Errorf("sweep needs at least one sample per temperature, got %d", c.Samples)
	}
	if c.Equilibrate < 0 || c.Dwell < 0 || c.Gap < 0 {
		return fmt.Errorf("sweep waits must be non-negative")
	}
	return nil
}

// SweepPoint is one temperature's worth of sampled observables.
type SweepPoint struct {
	Temp   float64
	Mag    float64 // mean magnetization across samples
	MagVar float64
	Chi    float64 // susceptibility N·Var(m)/T, 0 at T ≤ 0
	Binder float64
	Corr   []float64 // sample-averaged correlation at cfg.Distances
}

// DefaultDistances derives correlation lags for a lattice: 1 up to half
// the shorter side, capped at 16.
func DefaultDistances(lat lattice.Lattice) []int {
	m := lat.Width()
	if lat.Height() < m {
		m = lat.Height()
	}
	m /= 2
	if m > 16 {
		m = 16
	}
	if m < 1 {
		m = 1
	}
	ds := make([]int, m)
	for i := range ds {
		ds[i] = i + 1
	}
	return ds
}

// RunSweep walks the configured temperatures while the hot loop keeps
// running, sampling magnetization and correlation at each one. Only one
// sweep may be in flight per session; a second request fails immediately
// with ErrSweepActive. The analysis flag is cleared on every exit path.
// Points collected before an abort are returned alongside the error.
func (s *Session) RunSweep(ctx context.Context, cfg SweepConfig) ([]SweepPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !s.state.analysisOn.CompareAndSwap(false, true) {
		return nil, ErrSweepActive
	}
	defer s.state.analysisOn.Store(false)

	corr := analysis.SelectCorrelation(s.state.Lattice())
	dists := cfg.Distances
	if len(dists) == 0 {
		dists = DefaultDistances(s.state.Lattice())
	}
	s.log.Info("sweep started",
		"start", cfg.Start, "end", cfg.End, "step", cfg.Step, "samples", cfg.Samples)

	if err := sleepCtx(ctx, cfg.Equilibrate); err != nil {
		return nil, err
	}

	var points []SweepPoint
	for i := 0; ; i++ {
		t := cfg.Start + float64(i)*cfg.Step
		if t > cfg.End+sweepEps {
			break
		}
		s.state.SetTemperature(t)
		if err := sleepCtx(ctx, cfg.Dwell); err != nil {
			return points, err
		}

		// Re-read the handle per point: a live lattice swap mid-sweep
		// detaches the old grid, and sampling must follow the session.
		lat := s.state.Lattice()
		var mom analysis.Moments
		acc := make([]float64, len(dists))
		for k := 0; k < cfg.Samples; k++ {
			if k > 0 {
				if err := sleepCtx(ctx, cfg.Gap); err != nil {
					return points, err
				}
			}
			mom.Add(analysis.Magnetization(lat))
			for d, c := range corr(lat, dists) {
				acc[d] += c
			}
		}
		for d := range acc {
			acc[d] /= float64(cfg.Samples)
		}

		pt := SweepPoint{
			Temp:   t,
			Mag:    mom.Mean(),
			MagVar: mom.Variance(),
			Chi:    analysis.Susceptibility(&mom, lat.Active(), t),
			Binder: mom.Binder(),
			Corr:   acc,
		}
		if cfg.Snapshots {
			if err := s.Snapshot(fmt.Sprintf("T%.3f", t)); err != nil {
				return points, fmt.Errorf("sweep snapshot at T=%g: %w", t, err)
			}
		}
		points = append(points, pt)
		s.log.Info("sweep point", "temp", t, "mag", pt.Mag, "chi", pt.Chi)
	}
	s.log.Info("sweep finished", "points", len(points))
	return points, nil
}

// sleepCtx waits for d or until ctx ends. Zero and negative waits still
// act as cancellation checkpoints.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
