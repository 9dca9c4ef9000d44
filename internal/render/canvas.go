package render

import (
	"math"
	"strings"
)

// Braille patterns: 2x4 dots per character cell.
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille-cell terminal surface. Coordinates passed to Set
// are in sub-pixels: the canvas covers (Width*2) x (Height*4) of them.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// FromFrame maps a lattice frame onto braille dots: sites with positive
// values set their dot, down spins and defects stay clear. Handy as a
// compact terminal thumbnail in headless commands.
func FromFrame(f *Frame) *Canvas {
	c := NewCanvas((f.W+1)/2, (f.H+3)/4)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			if v := f.At(x, y); !math.IsNaN(v) && v > 0 {
				c.Set(x, y)
			}
		}
	}
	return c
}
