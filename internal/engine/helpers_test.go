package engine

import (
	"io"
	"log/slog"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newIsing(t interface{ Fatalf(string, ...any) }, w, h int) lattice.Lattice {
	lat, err := lattice.New(lattice.Spec{Model: lattice.ModelIsing, Width: w, Height: h, Seed: 42})
	if err != nil {
		t.Fatalf("building lattice: %v", err)
	}
	return lat
}
