package lattice

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

// Model names accepted by New.
const (
	ModelIsing    = "ising"
	ModelSoftSpin = "softspin"
)

// Models lists the available lattice models.
func Models() []string {
	return []string{ModelIsing, ModelSoftSpin}
}

// Lattice is the substrate the simulation engine drives. Site values and
// the defect mask are safe for concurrent access (per-site atomics);
// everything structural (dimensions, bond weights) only changes while the
// hot loop is parked.
type Lattice interface {
	// Model names the variant, one of the Model* constants.
	Model() string

	Width() int
	Height() int
	Sites() int

	// Value returns the state of site i as a float (±1 for spins).
	Value(i int) float64
	SetValue(i int, v float64)

	// LocalField returns the energy gradient at site i: -Σ w·v over
	// live neighbors. For a discrete site s the current site energy is
	// s·LocalField(i); for a continuous site a move v→c costs
	// LocalField(i)·(c-v) plus any on-site term.
	LocalField(i int) float64

	Defect(i int) bool
	SetDefect(i int, on bool)
	Defects() int
	Active() int

	// RandomActive samples a uniformly random non-defect site. The
	// second result is false when no active site could be found.
	RandomActive(r *rand.Rand) (int, bool)

	Weighted() bool
	SetWeighted(on bool)

	// Randomize re-draws every site state from the model's hot start
	// distribution. Call only while the hot loop is parked.
	Randomize(r *rand.Rand)
}

// Spec describes a lattice to build.
type Spec struct {
	Model      string
	Width      int
	Height     int
	Seed       int64
	Weighted   bool
	Lambda     float64 // softspin on-site well coefficient
	DefectFrac float64 // fraction of sites marked defect at build time
}

// New builds and initializes a lattice from spec. The seed fixes the
// initial state, the bond weights, and the defect sprinkle, so equal
// specs produce equal lattices.
func New(spec Spec) (Lattice, error) {
	if spec.Width < 2 || spec.Height < 2 {
		return nil, fmt.Errorf("lattice dimensions must be at least 2x2, got %dx%d", spec.Width, spec.Height)
	}
	if spec.Width > 4096 || spec.Height > 4096 {
		return nil, fmt.Errorf("lattice dimensions must be at most 4096x4096, got %dx%d", spec.Width, spec.Height)
	}
	if spec.DefectFrac < 0 || spec.DefectFrac >= 1 {
		return nil, fmt.Errorf("defect fraction must be in [0,1), got %f", spec.DefectFrac)
	}
	if spec.Lambda < 0 {
		return nil, fmt.Errorf("lambda must be non-negative, got %f", spec.Lambda)
	}

	var lat Lattice
	switch spec.Model {
	case ModelIsing:
		lat = NewIsing(spec.Width, spec.Height, spec.Seed)
	case ModelSoftSpin:
		lat = NewSoftSpin(spec.Width, spec.Height, spec.Seed, spec.Lambda)
	default:
		return nil, fmt.Errorf("unknown lattice model %q", spec.Model)
	}

	r := rand.New(rand.NewSource(spec.Seed))
	lat.Randomize(r)
	lat.SetWeighted(spec.Weighted)
	if spec.DefectFrac > 0 {
		n := lat.Sites()
		for i := 0; i < n; i++ {
			if r.Float64() < spec.DefectFrac {
				lat.SetDefect(i, true)
			}
		}
	}
	return lat, nil
}

// grid carries the geometry, defect mask, and bond weights shared by the
// lattice variants.
type grid struct {
	w, h     int
	defects  []uint32
	activeN  atomic.Int64
	weighted atomic.Bool
	wr, wd   []float64 // frozen bond weights: right and down edges per site
}

func newGrid(g *grid, w, h int, seed int64) {
	n := w * h
	g.w = w
	g.h = h
	g.defects = make([]uint32, n)
	g.wr = make([]float64, n)
	g.wd = make([]float64, n)
	g.activeN.Store(int64(n))
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		g.wr[i] = 0.5 + r.Float64()
		g.wd[i] = 0.5 + r.Float64()
	}
}

func (g *grid) Width() int  { return g.w }
func (g *grid) Height() int { return g.h }
func (g *grid) Sites() int  { return g.w * g.h }

func (g *grid) Defect(i int) bool {
	return atomic.LoadUint32(&g.defects[i]) != 0
}

func (g *grid) SetDefect(i int, on bool) {
	if on {
		if atomic.SwapUint32(&g.defects[i], 1) == 0 {
			g.activeN.Add(-1)
		}
		return
	}
	if atomic.SwapUint32(&g.defects[i], 0) == 1 {
		g.activeN.Add(1)
	}
}

func (g *grid) Active() int  { return int(g.activeN.Load()) }
func (g *grid) Defects() int { return g.Sites() - g.Active() }

// sampleTries bounds rejection sampling over the defect mask. Beyond
// this many misses the grid is effectively dead and the trial becomes a
// no-op.
const sampleTries = 64

func (g *grid) RandomActive(r *rand.Rand) (int, bool) {
	if g.activeN.Load() == 0 {
		return 0, false
	}
	n := g.w * g.h
	for t := 0; t < sampleTries; t++ {
		i := r.Intn(n)
		if atomic.LoadUint32(&g.defects[i]) == 0 {
			return i, true
		}
	}
	return 0, false
}

func (g *grid) Weighted() bool      { return g.weighted.Load() }
func (g *grid) SetWeighted(on bool) { g.weighted.Store(on) }

// neighborhood returns the four periodic neighbors of i and the weight
// of the connecting bonds.
func (g *grid) neighborhood(i int) (js [4]int, ws [4]float64) {
	x := i % g.w
	y := i / g.w
	n := g.w * g.h

	li := i - 1
	if x == 0 {
		li += g.w
	}
	ri := i + 1
	if x == g.w-1 {
		ri -= g.w
	}
	ui := i - g.w
	if y == 0 {
		ui += n
	}
	di := i + g.w
	if y == g.h-1 {
		di -= n
	}

	js = [4]int{li, ri, ui, di}
	if g.weighted.Load() {
		ws = [4]float64{g.wr[li], g.wr[i], g.wd[ui], g.wd[i]}
	} else {
		ws = [4]float64{1, 1, 1, 1}
	}
	return js, ws
}
