package grid

// Line returns the Bresenham rasterization of the segment a→b, both
// endpoints included.
func Line(a, b Point) []Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	out := make([]Point, 0, dx-dy+1)
	p := a
	for {
		out = append(out, p)
		if p == b {
			return out
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}
