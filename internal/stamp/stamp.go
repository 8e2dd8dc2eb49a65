// Package stamp paints structures onto the source half of a grid. Shapes are
// only placed where their clearance-expanded bounding box is empty, so two
// stamped structures never touch closer than the clearance.
package stamp

import (
	"math/rand"

	"arenaforge/internal/grid"
)

type Direction uint8

const (
	East Direction = iota
	South
)

func (d Direction) delta() (dx, dy int) {
	if d == South {
		return 0, 1
	}
	return 1, 0
}

// Perpendicular returns the direction a line's thickness grows in.
func (d Direction) Perpendicular() Direction {
	if d == South {
		return East
	}
	return South
}

type Stamper struct {
	g         *grid.Grid
	axis      grid.Axis
	clearance int
}

func New(g *grid.Grid, axis grid.Axis, clearance int) *Stamper {
	if clearance < 0 {
		clearance = 0
	}
	return &Stamper{g: g, axis: axis, clearance: clearance}
}

func (s *Stamper) Clearance() int {
	return s.clearance
}

// Line stamps a length×thickness bar starting at start and running along dir.
func (s *Stamper) Line(tile grid.Tile, start grid.Point, dir Direction, length, thickness int) bool {
	if length <= 0 || thickness <= 0 {
		return false
	}
	dx, dy := dir.delta()
	px, py := dir.Perpendicular().delta()
	cells := make([]grid.Point, 0, length*thickness)
	for i := 0; i < length; i++ {
		for j := 0; j < thickness; j++ {
			cells = append(cells, start.Add(i*dx+j*px, i*dy+j*py))
		}
	}
	return s.place(tile, cells)
}

// Rect stamps a filled w×h rectangle with its top-left corner at origin.
func (s *Stamper) Rect(tile grid.Tile, origin grid.Point, w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	cells := make([]grid.Point, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cells = append(cells, origin.Add(x, y))
		}
	}
	return s.place(tile, cells)
}

// Blob stamps a roughly round shape: cells within radius of center, with a
// random half-cell jitter on the rim.
func (s *Stamper) Blob(tile grid.Tile, center grid.Point, radius int, rng *rand.Rand) bool {
	if radius < 0 {
		return false
	}
	return s.place(tile, blobCells(center, radius, rng))
}

// Cells stamps an arbitrary cell list as one structure.
func (s *Stamper) Cells(tile grid.Tile, cells []grid.Point) bool {
	return s.place(tile, cells)
}

// Bush overlays bushes on Walkable source-half cells around center. It skips
// the clearance rule and never replaces other terrain.
func (s *Stamper) Bush(center grid.Point, radius int, rng *rand.Rand) bool {
	if radius < 0 {
		return false
	}
	stamped := false
	for _, p := range blobCells(center, radius, rng) {
		if !s.g.Contains(p) || !s.g.InSourceHalf(p, s.axis) || s.g.Get(p) != grid.Walkable {
			continue
		}
		if p != center && rng.Float64() >= 0.75 {
			continue
		}
		s.g.Put(p, grid.Bush)
		stamped = true
	}
	return stamped
}

func blobCells(center grid.Point, radius int, rng *rand.Rand) []grid.Point {
	out := make([]grid.Point, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := center.Add(dx, dy)
			if grid.Euclidean(p, center) <= float64(radius)-0.5+rng.Float64() {
				out = append(out, p)
			}
		}
	}
	return out
}

type bounds struct {
	minX, minY, maxX, maxY int
}

func boundsOf(cells []grid.Point) bounds {
	b := bounds{minX: cells[0].X, minY: cells[0].Y, maxX: cells[0].X, maxY: cells[0].Y}
	for _, p := range cells[1:] {
		b.minX = min(b.minX, p.X)
		b.minY = min(b.minY, p.Y)
		b.maxX = max(b.maxX, p.X)
		b.maxY = max(b.maxY, p.Y)
	}
	return b
}

func (b bounds) expand(n int, g *grid.Grid) bounds {
	return bounds{
		minX: max(0, b.minX-n),
		minY: max(0, b.minY-n),
		maxX: min(g.Cols()-1, b.maxX+n),
		maxY: min(g.Rows()-1, b.maxY+n),
	}
}

// place is the shared clearance protocol: validate the whole expanded box,
// paint, then clear the halo.
func (s *Stamper) place(tile grid.Tile, cells []grid.Point) bool {
	if len(cells) == 0 {
		return false
	}
	box := boundsOf(cells)
	lo, hi := grid.Point{X: box.minX, Y: box.minY}, grid.Point{X: box.maxX, Y: box.maxY}
	if !s.g.Contains(lo) || !s.g.Contains(hi) {
		return false
	}
	if !s.g.InSourceHalf(lo, s.axis) || !s.g.InSourceHalf(hi, s.axis) {
		return false
	}

	shape := make(map[grid.Point]struct{}, len(cells))
	for _, p := range cells {
		if s.g.Get(p) == grid.Spawn {
			return false
		}
		shape[p] = struct{}{}
	}
	halo := box.expand(s.clearance, s.g)
	for y := halo.minY; y <= halo.maxY; y++ {
		for x := halo.minX; x <= halo.maxX; x++ {
			if t := s.g.At(x, y); t != grid.Walkable && t != grid.Spawn {
				return false
			}
		}
	}

	for p := range shape {
		s.g.Put(p, tile)
	}
	for y := halo.minY; y <= halo.maxY; y++ {
		for x := halo.minX; x <= halo.maxX; x++ {
			p := grid.Point{X: x, Y: y}
			if _, ok := shape[p]; ok || s.g.Get(p) == grid.Spawn {
				continue
			}
			s.g.Put(p, grid.Walkable)
		}
	}
	return true
}
