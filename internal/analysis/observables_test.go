package analysis

import (
	"math"
	"testing"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

func TestMagnetization(t *testing.T) {
	l := lattice.NewIsing(4, 4, 1) // all spins +1

	if got := Magnetization(l); got != 1 {
		t.Errorf("uniform lattice: magnetization = %f, want 1", got)
	}

	for i := 0; i < 8; i++ {
		l.Flip(i)
	}
	if got := Magnetization(l); got != 0 {
		t.Errorf("half flipped: magnetization = %f, want 0", got)
	}
}

func TestMagnetizationSkipsDefects(t *testing.T) {
	l := lattice.NewIsing(4, 4, 1)

	// Point all defect sites down; they must not drag the mean.
	for i := 0; i < 4; i++ {
		l.SetValue(i, -1)
		l.SetDefect(i, true)
	}

	if got := Magnetization(l); got != 1 {
		t.Errorf("defected lattice: magnetization = %f, want 1", got)
	}
}

func TestEnergyPerSite(t *testing.T) {
	l := lattice.NewIsing(4, 4, 1)

	// Ground state: every bond aligned at unit weight.
	if got := EnergyPerSite(l); got != -2 {
		t.Errorf("uniform lattice: energy = %f, want -2", got)
	}
}

func TestMoments(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		mean       float64
		variance   float64
		binder     float64
	}{
		{"constant ones", []float64{1, 1, 1}, 1, 0, 2.0 / 3},
		{"symmetric spins", []float64{1, -1}, 0, 1, 2.0 / 3},
		{"spread", []float64{0, 2}, 1, 1, 1.0 / 3},
		{"empty", nil, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Moments
			for _, v := range tt.samples {
				m.Add(v)
			}
			if got := m.Mean(); math.Abs(got-tt.mean) > 1e-12 {
				t.Errorf("Mean = %f, want %f", got, tt.mean)
			}
			if got := m.Variance(); math.Abs(got-tt.variance) > 1e-12 {
				t.Errorf("Variance = %f, want %f", got, tt.variance)
			}
			if got := m.Binder(); math.Abs(got-tt.binder) > 1e-12 {
				t.Errorf("Binder = %f, want %f", got, tt.binder)
			}
		})
	}
}

func TestSusceptibility(t *testing.T) {
	var m Moments
	m.Add(0)
	m.Add(2) // variance 1

	if got := Susceptibility(&m, 100, 2); math.Abs(got-50) > 1e-12 {
		t.Errorf("Susceptibility = %f, want 50", got)
	}
	if got := Susceptibility(&m, 100, 0); got != 0 {
		t.Errorf("Susceptibility at T=0 = %f, want 0", got)
	}
}
