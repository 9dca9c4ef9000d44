package engine

import (
	"math"
	"testing"
)

func TestWindowFlushBoundary(t *testing.T) {
	w := NewWindow(60)

	// The first 59 recordings stay unpublished.
	for i := 0; i < 59; i++ {
		if _, ok := w.Record(3.5); ok {
			t.Fatalf("recording %d flushed early", i+1)
		}
	}

	// The 60th recording of a constant publishes that constant.
	v, ok := w.Record(3.5)
	if !ok {
		t.Fatal("60th recording did not flush")
	}
	if math.Abs(v-3.5) > 1e-12 {
		t.Errorf("flushed mean = %f, want 3.5", v)
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(60)

	w.Record(600) // the one outlier
	for i := 0; i < 59; i++ {
		w.Record(0)
	}
	if got := w.Mean(); math.Abs(got-10) > 1e-12 {
		t.Fatalf("full window mean = %f, want 10", got)
	}

	// The 61st recording evicts the outlier.
	w.Record(0)
	if got := w.Mean(); got != 0 {
		t.Errorf("mean after eviction = %f, want 0", got)
	}

	snap := w.Snapshot()
	if len(snap) != 60 {
		t.Fatalf("snapshot length = %d, want 60", len(snap))
	}
	for i, v := range snap {
		if v != 0 {
			t.Errorf("snapshot[%d] = %f, want 0", i, v)
		}
	}
}

func TestWindowSnapshotOrder(t *testing.T) {
	w := NewWindow(4)
	for i := 1; i <= 6; i++ {
		w.Record(float64(i))
	}

	snap := w.Snapshot()
	want := []float64{3, 4, 5, 6}
	if len(snap) != len(want) {
		t.Fatalf("snapshot length = %d, want %d", len(snap), len(want))
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("snapshot[%d] = %f, want %f", i, snap[i], want[i])
		}
	}
}

func TestWindowPartialFill(t *testing.T) {
	w := NewWindow(4)
	w.Record(2)
	w.Record(4)

	if got := w.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	if got := w.Mean(); got != 3 {
		t.Errorf("partial mean = %f, want 3", got)
	}
	if got := w.Sum(); got != 6 {
		t.Errorf("partial sum = %f, want 6", got)
	}
}

func TestWindowMinimumLength(t *testing.T) {
	w := NewWindow(0)
	v, ok := w.Record(7)
	if !ok {
		t.Fatal("length-1 window should flush every recording")
	}
	if v != 7 {
		t.Errorf("flushed value = %f, want 7", v)
	}
}
