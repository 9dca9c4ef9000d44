// Package render turns lattice state into presentation artifacts:
// frames, terminal canvases, PNG/GIF files, and SVG documents.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// Frame is an immutable row-major snapshot of lattice site values taken
// at one instant. Defect sites hold NaN.
type Frame struct {
	W, H int
	Vals []float64
}

// Capture reads every site once. Live trials may land between the
// per-site reads; each read itself is atomic, which is all presentation
// needs.
func Capture(lat lattice.Lattice) *Frame {
	w, h := lat.Width(), lat.Height()
	f := &Frame{W: w, H: h, Vals: make([]float64, w*h)}
	for i := range f.Vals {
		if lat.Defect(i) {
			f.Vals[i] = math.NaN()
		} else {
			f.Vals[i] = lat.Value(i)
		}
	}
	return f
}

// At returns the value at (x, y); NaN marks a defect.
func (f *Frame) At(x, y int) float64 {
	return f.Vals[y*f.W+x]
}

// Gradient anchors: down spins cold blue, up spins warm amber, defects
// muted red.
var (
	downColor   = color.RGBA{24, 42, 96, 255}
	upColor     = color.RGBA{236, 196, 84, 255}
	defectColor = color.RGBA{196, 44, 44, 255}
)

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + t*(float64(b)-float64(a)))
}

// SiteColor maps a site value in [-1,1] (NaN for defects) onto the
// frame gradient.
func SiteColor(v float64) color.RGBA {
	if math.IsNaN(v) {
		return defectColor
	}
	t := (v + 1) / 2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: lerpByte(downColor.R, upColor.R, t),
		G: lerpByte(downColor.G, upColor.G, t),
		B: lerpByte(downColor.B, upColor.B, t),
		A: 255,
	}
}

// Image renders the frame as an RGBA image, scale pixels per site.
func (f *Frame) Image(scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, f.W*scale, f.H*scale))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			c := SiteColor(f.At(x, y))
			for py := 0; py < scale; py++ {
				for px := 0; px < scale; px++ {
					img.SetRGBA(x*scale+px, y*scale+py, c)
				}
			}
		}
	}
	return img
}

// framePalette is the shared GIF palette: 16 gradient steps plus the
// defect color at index 16.
var framePalette = buildPalette()

func buildPalette() color.Palette {
	p := make(color.Palette, 0, 17)
	for i := 0; i < 16; i++ {
		t := float64(i) / 15
		v := -1 + 2*t
		p = append(p, SiteColor(v))
	}
	p = append(p, defectColor)
	return p
}

// Paletted renders the frame against the shared palette, scale pixels
// per site. Used for GIF assembly where quantizing per frame would be
// wasteful.
func (f *Frame) Paletted(scale int) *image.Paletted {
	if scale < 1 {
		scale = 1
	}
	img := image.NewPaletted(image.Rect(0, 0, f.W*scale, f.H*scale), framePalette)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			v := f.At(x, y)
			var idx uint8
			if math.IsNaN(v) {
				idx = 16
			} else {
				t := (v + 1) / 2
				if t < 0 {
					t = 0
				} else if t > 1 {
					t = 1
				}
				idx = uint8(t*15 + 0.5)
			}
			for py := 0; py < scale; py++ {
				for px := 0; px < scale; px++ {
					img.SetColorIndex(x*scale+px, y*scale+py, idx)
				}
			}
		}
	}
	return img
}
