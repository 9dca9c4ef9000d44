package analysis

import (
	"math"
	"testing"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

func TestStructureFactorUniform(t *testing.T) {
	l := lattice.NewIsing(8, 4, 1)

	s := StructureFactor(l)
	if len(s) != 5 {
		t.Fatalf("expected 5 bins for width 8, got %d", len(s))
	}
	if math.Abs(s[0]-8) > 1e-9 {
		t.Errorf("DC bin = %f, want 8", s[0])
	}
	for k := 1; k < len(s); k++ {
		if s[k] > 1e-9 {
			t.Errorf("bin %d = %f, want ~0", k, s[k])
		}
	}
}

func TestStructureFactorStripes(t *testing.T) {
	l := stripes(8, 8)

	s := StructureFactor(l)
	last := len(s) - 1 // Nyquist bin for period-2 stripes
	if math.Abs(s[last]-8) > 1e-9 {
		t.Errorf("Nyquist bin = %f, want 8", s[last])
	}
	if s[0] > 1e-9 {
		t.Errorf("DC bin = %f, want ~0", s[0])
	}
}
