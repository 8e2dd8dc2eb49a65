package connectivity

import "arenaforge/internal/grid"

// Labels assigns every passable cell a component id (>= 0); other cells get -1.
type Labels struct {
	IDs   []int
	Sizes []int
}

func (l Labels) Count() int {
	return len(l.Sizes)
}

// Largest returns the id and size of the biggest component, (-1, 0) if none.
func (l Labels) Largest() (int, int) {
	best, size := -1, 0
	for id, s := range l.Sizes {
		if s > size {
			best, size = id, s
		}
	}
	return best, size
}

// Components labels the 4-connected components of passable cells.
func Components(g *grid.Grid, passable TileSet) Labels {
	return labelWhere(g, passMask(passable), func(grid.Tile, grid.Tile) bool { return true })
}

// SameTileComponents labels 4-connected runs of identical tiles among the
// passable set, e.g. individual box clumps.
func SameTileComponents(g *grid.Grid, passable TileSet) Labels {
	return labelWhere(g, passMask(passable), func(a, b grid.Tile) bool { return a == b })
}

func labelWhere(g *grid.Grid, mask [256]bool, join func(a, b grid.Tile) bool) Labels {
	ids := make([]int, g.Len())
	for i := range ids {
		ids[i] = -1
	}
	var sizes []int
	queue := make([]int, 0, 64)
	for i := range ids {
		if ids[i] != -1 || !mask[g.Get(g.PointAt(i))] {
			continue
		}
		id := len(sizes)
		ids[i] = id
		queue = append(queue[:0], i)
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			p := g.PointAt(cur)
			tile := g.Get(p)
			for _, d := range offsets4 {
				nx, ny := p.X+d[0], p.Y+d[1]
				if !g.InBounds(nx, ny) {
					continue
				}
				n := ny*g.Cols() + nx
				nt := g.At(nx, ny)
				if ids[n] != -1 || !mask[nt] || !join(tile, nt) {
					continue
				}
				ids[n] = id
				queue = append(queue, n)
			}
		}
		sizes = append(sizes, len(queue))
	}
	return Labels{IDs: ids, Sizes: sizes}
}

// ArticulationPoints returns the passable cells whose removal splits their
// component. Iterative Tarjan lowlink so 64×64 open maps do not recurse deep.
func ArticulationPoints(g *grid.Grid, passable TileSet) []grid.Point {
	mask := passMask(passable)
	n := g.Len()
	disc := make([]int, n)
	low := make([]int, n)
	parent := make([]int, n)
	isCut := make([]bool, n)
	for i := range disc {
		disc[i] = -1
		parent[i] = -1
	}

	type frame struct {
		node     int
		next     int
		children int
	}
	timer := 0
	stack := make([]frame, 0, 64)
	for root := 0; root < n; root++ {
		if disc[root] != -1 || !mask[g.Get(g.PointAt(root))] {
			continue
		}
		disc[root], low[root] = timer, timer
		timer++
		stack = append(stack[:0], frame{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(offsets4) {
				d := offsets4[top.next]
				top.next++
				p := g.PointAt(top.node)
				nx, ny := p.X+d[0], p.Y+d[1]
				if !g.InBounds(nx, ny) || !mask[g.At(nx, ny)] {
					continue
				}
				nb := ny*g.Cols() + nx
				if disc[nb] == -1 {
					parent[nb] = top.node
					top.children++
					disc[nb], low[nb] = timer, timer
					timer++
					stack = append(stack, frame{node: nb})
				} else if nb != parent[top.node] && disc[nb] < low[top.node] {
					low[top.node] = disc[nb]
				}
				continue
			}

			done := *top
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				if done.children > 1 {
					isCut[done.node] = true
				}
				continue
			}
			up := &stack[len(stack)-1]
			if low[done.node] < low[up.node] {
				low[up.node] = low[done.node]
			}
			if len(stack) > 1 && low[done.node] >= disc[up.node] {
				isCut[up.node] = true
			}
		}
	}

	out := make([]grid.Point, 0)
	for i, cut := range isCut {
		if cut {
			out = append(out, g.PointAt(i))
		}
	}
	return out
}
