// Package grid holds the tile matrix of an arena map together with its
// coordinate vocabulary and mirror symmetry helpers.
package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyGrid      = errors.New("grid has no cells")
	ErrNonRectangular = errors.New("grid rows differ in length")
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func Euclidean(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// Size is a rows×cols pair.
type Size struct {
	Rows int `json:"rows" toml:"rows"`
	Cols int `json:"cols" toml:"cols"`
}

var validSizes = []Size{{Rows: 60, Cols: 60}, {Rows: 64, Cols: 64}}

func ValidSizes() []Size {
	return append([]Size(nil), validSizes...)
}

func ValidSize(rows, cols int) bool {
	for _, s := range validSizes {
		if s.Rows == rows && s.Cols == cols {
			return true
		}
	}
	return false
}

// Grid is a rows×cols tile matrix stored row-major. A Grid is owned by a
// single individual; operators that edit it take it exclusively.
type Grid struct {
	rows  int
	cols  int
	cells []Tile
}

// New returns an all-Walkable grid.
func New(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{rows: rows, cols: cols, cells: make([]Tile, rows*cols)}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Len() int  { return len(g.cells) }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.cols && y >= 0 && y < g.rows
}

func (g *Grid) Contains(p Point) bool {
	return g.InBounds(p.X, p.Y)
}

func (g *Grid) At(x, y int) Tile {
	return g.cells[y*g.cols+x]
}

func (g *Grid) Get(p Point) Tile {
	return g.cells[p.Y*g.cols+p.X]
}

func (g *Grid) Set(x, y int, t Tile) {
	g.cells[y*g.cols+x] = t
}

func (g *Grid) Put(p Point, t Tile) {
	g.cells[p.Y*g.cols+p.X] = t
}

// Index maps p to its row-major offset.
func (g *Grid) Index(p Point) int {
	return p.Y*g.cols + p.X
}

func (g *Grid) PointAt(idx int) Point {
	return Point{X: idx % g.cols, Y: idx / g.cols}
}

func (g *Grid) Fill(t Tile) {
	for i := range g.cells {
		g.cells[i] = t
	}
}

func (g *Grid) Clone() *Grid {
	out := &Grid{rows: g.rows, cols: g.cols, cells: make([]Tile, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

func (g *Grid) Count(t Tile) int {
	n := 0
	for _, c := range g.cells {
		if c == t {
			n++
		}
	}
	return n
}

// CountWhere counts cells whose tile satisfies keep.
func (g *Grid) CountWhere(keep func(Tile) bool) int {
	n := 0
	for _, c := range g.cells {
		if keep(c) {
			n++
		}
	}
	return n
}

// Positions lists the cells holding t in row-major order.
func (g *Grid) Positions(t Tile) []Point {
	out := make([]Point, 0)
	for i, c := range g.cells {
		if c == t {
			out = append(out, g.PointAt(i))
		}
	}
	return out
}

func (g *Grid) Center() Point {
	return Point{X: g.cols / 2, Y: g.rows / 2}
}

// Tiles returns a copy of the row-major cell slice.
func (g *Grid) Tiles() []Tile {
	return append([]Tile(nil), g.cells...)
}

// IDs renders the grid with the export tile-id table.
func (g *Grid) IDs() [][]int {
	out := make([][]int, g.rows)
	for y := 0; y < g.rows; y++ {
		row := make([]int, g.cols)
		for x := 0; x < g.cols; x++ {
			row[x] = g.At(x, y).ID()
		}
		out[y] = row
	}
	return out
}

// FromIDs is the inverse of IDs.
func FromIDs(ids [][]int) (*Grid, error) {
	if len(ids) == 0 || len(ids[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	g := New(len(ids), len(ids[0]))
	for y, row := range ids {
		if len(row) != g.cols {
			return nil, ErrNonRectangular
		}
		for x, id := range row {
			t, err := TileFromID(id)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", x, y, err)
			}
			g.Set(x, y, t)
		}
	}
	return g, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
