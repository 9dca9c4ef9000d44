package analysis

import (
	"math"
	"testing"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// stripes flips every odd column so that rows alternate +1,-1,+1,...
func stripes(w, h int) *lattice.Ising {
	l := lattice.NewIsing(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 1; x < w; x += 2 {
			l.Flip(y*w + x)
		}
	}
	return l
}

func TestAxisCorrelationUniform(t *testing.T) {
	l := lattice.NewIsing(8, 8, 1)

	got := AxisCorrelation(l, []int{1, 2, 3})
	for i, c := range got {
		if math.Abs(c-1) > 1e-12 {
			t.Errorf("distance %d: correlation = %f, want 1", i+1, c)
		}
	}
}

func TestAxisCorrelationStripes(t *testing.T) {
	l := stripes(8, 8)

	// Along x the correlation is (-1)^d, along y it is +1; the axis
	// average is their mean.
	got := AxisCorrelation(l, []int{1, 2})
	if math.Abs(got[0]-0) > 1e-12 {
		t.Errorf("distance 1: correlation = %f, want 0", got[0])
	}
	if math.Abs(got[1]-1) > 1e-12 {
		t.Errorf("distance 2: correlation = %f, want 1", got[1])
	}
}

func TestMaskedCorrelationMatchesAxisWhenClean(t *testing.T) {
	l := stripes(8, 8)
	dists := []int{1, 2, 3}

	axis := AxisCorrelation(l, dists)
	masked := MaskedCorrelation(l, dists)
	for i := range dists {
		if math.Abs(axis[i]-masked[i]) > 1e-12 {
			t.Errorf("distance %d: axis %f vs masked %f", dists[i], axis[i], masked[i])
		}
	}
}

func TestMaskedCorrelationSkipsDefects(t *testing.T) {
	l := lattice.NewIsing(8, 8, 1)

	// Poison a few sites with opposed values, then mark them defect:
	// the estimator must ignore them entirely.
	for _, i := range []int{3, 17, 42} {
		l.SetValue(i, -1)
		l.SetDefect(i, true)
	}

	got := MaskedCorrelation(l, []int{1, 2})
	for i, c := range got {
		if math.Abs(c-1) > 1e-12 {
			t.Errorf("distance %d: correlation = %f, want 1", i+1, c)
		}
	}
}

func TestSelectCorrelation(t *testing.T) {
	clean := lattice.NewIsing(4, 4, 1)
	if got := SelectCorrelation(clean); got == nil {
		t.Fatal("no estimator for clean lattice")
	}

	// The strategy is picked by the defect census. The two estimators
	// agree on a uniform lattice, so assert on behavior with a defect
	// present: only the masked estimator reports 1.0 when the sole
	// opposed site is a defect.
	dirty := lattice.NewIsing(4, 4, 1)
	dirty.SetValue(5, -1)
	dirty.SetDefect(5, true)

	got := SelectCorrelation(dirty)(dirty, []int{1})
	if math.Abs(got[0]-1) > 1e-12 {
		t.Errorf("defect-aware estimator: correlation = %f, want 1", got[0])
	}
}
