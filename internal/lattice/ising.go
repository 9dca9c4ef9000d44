package lattice

import (
	"math/rand"
	"sync/atomic"
)

// Ising is a 2D ±1 spin lattice with periodic boundaries and optional
// frozen random bond weights.
type Ising struct {
	grid
	spins []int32
}

func NewIsing(w, h int, seed int64) *Ising {
	l := &Ising{
		spins: make([]int32, w*h),
	}
	newGrid(&l.grid, w, h, seed)
	for i := range l.spins {
		l.spins[i] = 1
	}
	return l
}

func (l *Ising) Model() string { return ModelIsing }

// Spin returns the spin at site i, one of -1 or +1.
func (l *Ising) Spin(i int) int32 {
	return atomic.LoadInt32(&l.spins[i])
}

// Flip negates the spin at site i.
func (l *Ising) Flip(i int) {
	for {
		old := atomic.LoadInt32(&l.spins[i])
		if atomic.CompareAndSwapInt32(&l.spins[i], old, -old) {
			return
		}
	}
}

func (l *Ising) Value(i int) float64 {
	return float64(l.Spin(i))
}

func (l *Ising) SetValue(i int, v float64) {
	var s int32 = 1
	if v < 0 {
		s = -1
	}
	atomic.StoreInt32(&l.spins[i], s)
}

func (l *Ising) LocalField(i int) float64 {
	js, ws := l.neighborhood(i)
	var sum float64
	for k, j := range js {
		if atomic.LoadUint32(&l.defects[j]) != 0 {
			continue
		}
		sum += ws[k] * float64(atomic.LoadInt32(&l.spins[j]))
	}
	return -sum
}

func (l *Ising) Randomize(r *rand.Rand) {
	for i := range l.spins {
		var s int32 = 1
		if r.Intn(2) == 0 {
			s = -1
		}
		atomic.StoreInt32(&l.spins[i], s)
	}
}
