// Package view draws colonies in a terminal.
//
// Snapshots are projected orthographically onto the x/y plane, the [-1, 1]
// square is fitted to the target area and every terminal cell is treated as
// a 2x4 grid of braille dots.
package view

import (
	"math"
	"strings"

	"github.com/sanonone/spacecol/pkg/core/geom"
	"github.com/sanonone/spacecol/pkg/engine"
)

const brailleBase = 0x2800

// dotBits maps a dot position inside a cell (column, row) to its braille bit.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// Layer tells what a cell shows.
type Layer uint8

const (
	Empty Layer = iota
	Attractors
	Branches
)

// Picture is a rasterized snapshot, w x h cells.
type Picture struct {
	W, H     int
	branches []uint8
	attracts []uint8
}

// Rasterize draws s into a w x h cell picture. Branches are drawn over
// attractors.
func Rasterize(s *engine.Snapshot, w, h int) *Picture {
	p := &Picture{W: w, H: h, branches: make([]uint8, w*h), attracts: make([]uint8, w*h)}
	if w <= 0 || h <= 0 {
		return p
	}
	for _, a := range s.Attractors {
		x, y := p.project(a.Position)
		p.set(p.attracts, x, y)
	}
	for _, seg := range s.Segments {
		x0, y0 := p.project(seg.Parent)
		x1, y1 := p.project(seg.Child)
		p.line(x0, y0, x1, y1)
	}
	for _, r := range s.Roots {
		x, y := p.project(r)
		p.set(p.branches, x, y)
	}
	return p
}

// project maps a position to dot coordinates. y grows downwards.
func (p *Picture) project(v geom.Vec) (int, int) {
	dw, dh := float64(2*p.W-1), float64(4*p.H-1)
	x := (v.X + 1) / 2 * dw
	y := (1 - v.Y) / 2 * dh
	return int(math.Round(x)), int(math.Round(y))
}

func (p *Picture) set(layer []uint8, x, y int) {
	if x < 0 || y < 0 || x >= 2*p.W || y >= 4*p.H {
		return
	}
	layer[(y/4)*p.W+x/2] |= dotBits[x%2][y%4]
}

// line draws with Bresenham's algorithm.
func (p *Picture) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		p.set(p.branches, x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Cell returns the character and layer of cell (x, y).
func (p *Picture) Cell(x, y int) (rune, Layer) {
	i := y*p.W + x
	b, a := p.branches[i], p.attracts[i]
	switch {
	case b != 0:
		return rune(brailleBase + int(b|a)), Branches
	case a != 0:
		return rune(brailleBase + int(a)), Attractors
	}
	return rune(brailleBase), Empty
}

// String renders the picture as h lines of w braille characters.
func (p *Picture) String() string {
	var sb strings.Builder
	sb.Grow(p.H * (p.W*3 + 1))
	for y := range p.H {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range p.W {
			r, _ := p.Cell(x, y)
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
