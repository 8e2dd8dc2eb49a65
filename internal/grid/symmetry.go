package grid

import (
	"fmt"
	"strings"
)

// Axis is the mirror line of an individual. Vertical mirrors columns,
// Horizontal mirrors rows.
type Axis uint8

const (
	Vertical Axis = iota
	Horizontal
)

func (a Axis) String() string {
	switch a {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("axis(%d)", uint8(a))
	}
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vertical", "v":
		return Vertical, nil
	case "horizontal", "h":
		return Horizontal, nil
	default:
		return 0, fmt.Errorf("unsupported symmetry axis: %s", s)
	}
}

func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(text []byte) error {
	parsed, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Mirror returns the partner of p across the axis.
func (g *Grid) Mirror(p Point, axis Axis) Point {
	if axis == Horizontal {
		return Point{X: p.X, Y: g.rows - 1 - p.Y}
	}
	return Point{X: g.cols - 1 - p.X, Y: p.Y}
}

// InSourceHalf reports whether p lies on the pre-mirror half. Cells on the
// mirror line of an odd dimension belong to the source half.
func (g *Grid) InSourceHalf(p Point, axis Axis) bool {
	if axis == Horizontal {
		return p.Y < (g.rows+1)/2
	}
	return p.X < (g.cols+1)/2
}

// OnAxis reports whether p is its own mirror image.
func (g *Grid) OnAxis(p Point, axis Axis) bool {
	return g.Mirror(p, axis) == p
}

// SourceBounds returns the exclusive x/y limits of the source half.
func (g *Grid) SourceBounds(axis Axis) (maxX, maxY int) {
	if axis == Horizontal {
		return g.cols, (g.rows + 1) / 2
	}
	return (g.cols + 1) / 2, g.rows
}

// ApplySymmetry overwrites the mirrored half with the source half.
func (g *Grid) ApplySymmetry(axis Axis) {
	maxX, maxY := g.SourceBounds(axis)
	for y := 0; y < maxY; y++ {
		for x := 0; x < maxX; x++ {
			p := Point{X: x, Y: y}
			m := g.Mirror(p, axis)
			if m != p {
				g.Put(m, g.Get(p))
			}
		}
	}
}

// SymmetryRatio is the fraction of cells equal to their mirror cell.
func (g *Grid) SymmetryRatio(axis Axis) float64 {
	if len(g.cells) == 0 {
		return 0
	}
	match := 0
	for i, c := range g.cells {
		if g.Get(g.Mirror(g.PointAt(i), axis)) == c {
			match++
		}
	}
	return float64(match) / float64(len(g.cells))
}

func (g *Grid) IsSymmetric(axis Axis) bool {
	for i, c := range g.cells {
		if g.Get(g.Mirror(g.PointAt(i), axis)) != c {
			return false
		}
	}
	return true
}
