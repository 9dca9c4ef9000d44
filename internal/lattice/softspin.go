package lattice

import (
	"math"
	"math/rand"
	"sync/atomic"
)

// SoftSpin is a 2D lattice of bounded continuous values in [-1,1]. With
// a positive lambda each site sits in a double well pinning values near
// ±1; lambda zero leaves the pure bond energy.
type SoftSpin struct {
	grid
	vals   []uint64 // float64 bits
	lambda float64
}

func NewSoftSpin(w, h int, seed int64, lambda float64) *SoftSpin {
	l := &SoftSpin{
		vals:   make([]uint64, w*h),
		lambda: lambda,
	}
	newGrid(&l.grid, w, h, seed)
	one := math.Float64bits(1)
	for i := range l.vals {
		l.vals[i] = one
	}
	return l
}

func (l *SoftSpin) Model() string { return ModelSoftSpin }

// Domain returns the bounds site values live in.
func (l *SoftSpin) Domain() (lo, hi float64) { return -1, 1 }

func (l *SoftSpin) Lambda() float64 { return l.lambda }

func (l *SoftSpin) Value(i int) float64 {
	return math.Float64frombits(atomic.LoadUint64(&l.vals[i]))
}

func (l *SoftSpin) SetValue(i int, v float64) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	atomic.StoreUint64(&l.vals[i], math.Float64bits(v))
}

// WellDelta is the on-site energy change of moving a site from cur to
// cand: lambda·[(cand²-1)² - (cur²-1)²].
func (l *SoftSpin) WellDelta(cur, cand float64) float64 {
	if l.lambda == 0 {
		return 0
	}
	a := cand*cand - 1
	b := cur*cur - 1
	return l.lambda * (a*a - b*b)
}

func (l *SoftSpin) LocalField(i int) float64 {
	js, ws := l.neighborhood(i)
	var sum float64
	for k, j := range js {
		if atomic.LoadUint32(&l.defects[j]) != 0 {
			continue
		}
		sum += ws[k] * math.Float64frombits(atomic.LoadUint64(&l.vals[j]))
	}
	return -sum
}

func (l *SoftSpin) Randomize(r *rand.Rand) {
	for i := range l.vals {
		v := -1 + 2*r.Float64()
		atomic.StoreUint64(&l.vals[i], math.Float64bits(v))
	}
}
