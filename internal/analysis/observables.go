// Package analysis computes lattice observables: magnetization, energy,
// two-point correlation, and spectral structure.
package analysis

import (
	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// Magnetization is the mean site value over active (non-defect) sites.
func Magnetization(lat lattice.Lattice) float64 {
	n := lat.Sites()
	var sum float64
	active := 0
	for i := 0; i < n; i++ {
		if lat.Defect(i) {
			continue
		}
		sum += lat.Value(i)
		active++
	}
	if active == 0 {
		return 0
	}
	return sum / float64(active)
}

// EnergyPerSite is the mean bond energy per active site. Each bond
// enters twice through the two local fields, hence the half.
func EnergyPerSite(lat lattice.Lattice) float64 {
	n := lat.Sites()
	var sum float64
	active := 0
	for i := 0; i < n; i++ {
		if lat.Defect(i) {
			continue
		}
		sum += lat.Value(i) * lat.LocalField(i)
		active++
	}
	if active == 0 {
		return 0
	}
	return sum / (2 * float64(active))
}

// Moments accumulates running moments of a scalar sample stream.
type Moments struct {
	n              int
	s1, s2, s4 float64
}

func (m *Moments) Add(v float64) {
	m.n++
	v2 := v * v
	m.s1 += v
	m.s2 += v2
	m.s4 += v2 * v2
}

func (m *Moments) Count() int { return m.n }

func (m *Moments) Mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.s1 / float64(m.n)
}

// Variance is ⟨v²⟩-⟨v⟩², clamped at zero against float cancellation.
func (m *Moments) Variance() float64 {
	if m.n == 0 {
		return 0
	}
	mean := m.s1 / float64(m.n)
	v := m.s2/float64(m.n) - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}

// Binder is the fourth-order cumulant 1-⟨v⁴⟩/(3⟨v²⟩²), 0 for an empty
// or all-zero stream.
func (m *Moments) Binder() float64 {
	if m.n == 0 {
		return 0
	}
	b2 := m.s2 / float64(m.n)
	if b2 == 0 {
		return 0
	}
	return 1 - (m.s4/float64(m.n))/(3*b2*b2)
}

// Susceptibility is N·Var(m)/T; at T ≤ 0 it is defined as zero.
func Susceptibility(m *Moments, sites int, temp float64) float64 {
	if temp <= 0 {
		return 0
	}
	return float64(sites) * m.Variance() / temp
}
