package lattice

import (
	"math"
	"testing"
)

func TestIsingLocalField(t *testing.T) {
	l := NewIsing(4, 4, 1) // all spins +1

	// Four aligned neighbors at unit weight.
	if got := l.LocalField(5); got != -4 {
		t.Errorf("uniform lattice: LocalField = %f, want -4", got)
	}

	// A defect neighbor drops out of the sum.
	l.SetDefect(6, true)
	if got := l.LocalField(5); got != -3 {
		t.Errorf("one defect neighbor: LocalField = %f, want -3", got)
	}
	l.SetDefect(6, false)

	// Flipping a neighbor flips its contribution.
	l.Flip(4)
	if got := l.LocalField(5); got != -2 {
		t.Errorf("one opposed neighbor: LocalField = %f, want -2", got)
	}
}

func TestIsingLocalFieldWeighted(t *testing.T) {
	l := NewIsing(4, 4, 9) // all spins +1
	l.SetWeighted(true)

	// Site 5 neighbors: left 4, right 6, up 1, down 9.
	want := -(l.wr[4] + l.wr[5] + l.wd[1] + l.wd[5])
	if got := l.LocalField(5); math.Abs(got-want) > 1e-12 {
		t.Errorf("weighted LocalField = %f, want %f", got, want)
	}

	l.SetWeighted(false)
	if got := l.LocalField(5); got != -4 {
		t.Errorf("unweighted LocalField = %f, want -4", got)
	}
}

func TestIsingFlip(t *testing.T) {
	l := NewIsing(4, 4, 1)

	l.Flip(0)
	if got := l.Spin(0); got != -1 {
		t.Errorf("after flip: spin = %d, want -1", got)
	}
	l.Flip(0)
	if got := l.Spin(0); got != 1 {
		t.Errorf("after second flip: spin = %d, want 1", got)
	}
}

func TestIsingSetValue(t *testing.T) {
	l := NewIsing(4, 4, 1)

	l.SetValue(2, -0.3)
	if got := l.Spin(2); got != -1 {
		t.Errorf("SetValue(-0.3): spin = %d, want -1", got)
	}
	l.SetValue(2, 0.0)
	if got := l.Spin(2); got != 1 {
		t.Errorf("SetValue(0): spin = %d, want 1", got)
	}
}

func TestIsingPeriodicWrap(t *testing.T) {
	l := NewIsing(3, 3, 1)

	// Corner site 0 wraps to 2 (left), 1 (right), 6 (up), 3 (down).
	l.Flip(2)
	l.Flip(6)
	if got := l.LocalField(0); got != 0 {
		t.Errorf("corner field with two opposed wrapped neighbors = %f, want 0", got)
	}
}
