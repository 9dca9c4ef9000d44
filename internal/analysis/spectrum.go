package analysis

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// StructureFactor returns the row-averaged power spectrum |F(k)|² of the
// site values, bins k = 0..W/2, normalized by the site count. Defect
// sites enter as zeros. A uniform lattice concentrates all power in the
// k=0 bin; stripes of period p peak at k = W/p.
func StructureFactor(lat lattice.Lattice) []float64 {
	w, h := lat.Width(), lat.Height()
	out := make([]float64, w/2+1)
	row := make([]float64, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if lat.Defect(i) {
				row[x] = 0
			} else {
				row[x] = lat.Value(i)
			}
		}
		spec := fft.FFTReal(row)
		for k := 0; k < len(out); k++ {
			re := real(spec[k])
			im := imag(spec[k])
			out[k] += re*re + im*im
		}
	}
	norm := float64(w * h)
	for k := range out {
		out[k] /= norm
	}
	return out
}
