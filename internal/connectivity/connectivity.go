// Package connectivity answers reachability and shortest-path questions over
// a grid. Every query is a 4-directional, unweighted breadth-first search
// parameterized by the set of tiles that may be entered.
package connectivity

import (
	"github.com/zyedidia/generic/mapset"

	"arenaforge/internal/grid"
)

// Unreachable is returned by cost queries when no target can be reached.
const Unreachable = -1

var offsets4 = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// TileSet is the set of tiles a search may step onto.
type TileSet = mapset.Set[grid.Tile]

func Tiles(tiles ...grid.Tile) TileSet {
	s := mapset.New[grid.Tile]()
	for _, t := range tiles {
		s.Put(t)
	}
	return s
}

// Traversable is the walking set used by the connectivity constraint and repair.
func Traversable() TileSet {
	return Tiles(grid.Walkable, grid.Box, grid.Bush, grid.Spawn)
}

// Impassable is the obstacle set.
func Impassable() TileSet {
	return Tiles(grid.Wall, grid.Water, grid.Cover)
}

// Neighbors4 returns the in-bounds orthogonal neighbours of p.
func Neighbors4(g *grid.Grid, p grid.Point) []grid.Point {
	out := make([]grid.Point, 0, 4)
	for _, d := range offsets4 {
		n := p.Add(d[0], d[1])
		if g.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// passMask flattens the tile set once per query.
func passMask(passable TileSet) [256]bool {
	var mask [256]bool
	for _, t := range grid.AllTiles() {
		mask[t] = passable.Has(t)
	}
	return mask
}

// Reachable floods from start through passable tiles. A start cell that is
// out of bounds or not passable yields an empty set.
func Reachable(g *grid.Grid, start grid.Point, passable TileSet) mapset.Set[grid.Point] {
	out := mapset.New[grid.Point]()
	for _, idx := range flood(g, start, passMask(passable)) {
		out.Put(g.PointAt(idx))
	}
	return out
}

// ReachableCount is Reachable without materializing the set.
func ReachableCount(g *grid.Grid, start grid.Point, passable TileSet) int {
	return len(flood(g, start, passMask(passable)))
}

func flood(g *grid.Grid, start grid.Point, mask [256]bool) []int {
	if !g.Contains(start) || !mask[g.Get(start)] {
		return nil
	}
	visited := make([]bool, g.Len())
	startIdx := g.Index(start)
	visited[startIdx] = true
	queue := []int{startIdx}
	for head := 0; head < len(queue); head++ {
		p := g.PointAt(queue[head])
		for _, d := range offsets4 {
			nx, ny := p.X+d[0], p.Y+d[1]
			if !g.InBounds(nx, ny) {
				continue
			}
			n := ny*g.Cols() + nx
			if visited[n] || !mask[g.At(nx, ny)] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return queue
}

// ShortestPathCost returns the step count from start to the nearest target
// moving through passable tiles, or Unreachable. Targets are entered even when
// their own tile is not in passable, so a search can end on any marked cell.
func ShortestPathCost(g *grid.Grid, start grid.Point, passable TileSet, targets []grid.Point) int {
	if !g.Contains(start) || len(targets) == 0 {
		return Unreachable
	}
	isTarget := make([]bool, g.Len())
	for _, t := range targets {
		if g.Contains(t) {
			isTarget[g.Index(t)] = true
		}
	}
	mask := passMask(passable)
	dist := make([]int, g.Len())
	for i := range dist {
		dist[i] = Unreachable
	}
	startIdx := g.Index(start)
	dist[startIdx] = 0
	queue := []int{startIdx}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if isTarget[cur] {
			return dist[cur]
		}
		p := g.PointAt(cur)
		for _, d := range offsets4 {
			nx, ny := p.X+d[0], p.Y+d[1]
			if !g.InBounds(nx, ny) {
				continue
			}
			n := ny*g.Cols() + nx
			if dist[n] != Unreachable {
				continue
			}
			if !mask[g.At(nx, ny)] && !isTarget[n] {
				continue
			}
			dist[n] = dist[cur] + 1
			queue = append(queue, n)
		}
	}
	return Unreachable
}

// DistanceField runs one multi-source BFS and returns the row-major distance
// of every cell to its nearest source, Unreachable where none is reachable.
func DistanceField(g *grid.Grid, sources []grid.Point, passable TileSet) []int {
	mask := passMask(passable)
	dist := make([]int, g.Len())
	for i := range dist {
		dist[i] = Unreachable
	}
	queue := make([]int, 0, len(sources))
	for _, s := range sources {
		if !g.Contains(s) {
			continue
		}
		idx := g.Index(s)
		if dist[idx] == 0 {
			continue
		}
		dist[idx] = 0
		queue = append(queue, idx)
	}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		p := g.PointAt(cur)
		for _, d := range offsets4 {
			nx, ny := p.X+d[0], p.Y+d[1]
			if !g.InBounds(nx, ny) {
				continue
			}
			n := ny*g.Cols() + nx
			if dist[n] != Unreachable || !mask[g.At(nx, ny)] {
				continue
			}
			dist[n] = dist[cur] + 1
			queue = append(queue, n)
		}
	}
	return dist
}

// ShortestPath returns a shortest path from start to goal through passable
// tiles, endpoints included, or nil when goal cannot be reached.
func ShortestPath(g *grid.Grid, start, goal grid.Point, passable TileSet) []grid.Point {
	if !g.Contains(start) || !g.Contains(goal) {
		return nil
	}
	mask := passMask(passable)
	parent := make([]int, g.Len())
	for i := range parent {
		parent[i] = -2
	}
	startIdx, goalIdx := g.Index(start), g.Index(goal)
	parent[startIdx] = -1
	queue := []int{startIdx}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur == goalIdx {
			return reconstruct(g, parent, cur)
		}
		p := g.PointAt(cur)
		for _, d := range offsets4 {
			nx, ny := p.X+d[0], p.Y+d[1]
			if !g.InBounds(nx, ny) {
				continue
			}
			n := ny*g.Cols() + nx
			if parent[n] != -2 || (!mask[g.At(nx, ny)] && n != goalIdx) {
				continue
			}
			parent[n] = cur
			queue = append(queue, n)
		}
	}
	return nil
}

// ShortestPathAnyCost returns a shortest 4-connected path from start to goal
// ignoring tiles entirely. Both endpoints are included.
func ShortestPathAnyCost(g *grid.Grid, start, goal grid.Point) []grid.Point {
	if !g.Contains(goal) {
		return nil
	}
	isGoal := make([]bool, g.Len())
	isGoal[g.Index(goal)] = true
	return pathAnyCost(g, start, isGoal)
}

// PathToSet is ShortestPathAnyCost towards the nearest member of targets.
func PathToSet(g *grid.Grid, start grid.Point, targets mapset.Set[grid.Point]) []grid.Point {
	if targets.Size() == 0 {
		return nil
	}
	isGoal := make([]bool, g.Len())
	targets.Each(func(p grid.Point) {
		if g.Contains(p) {
			isGoal[g.Index(p)] = true
		}
	})
	return pathAnyCost(g, start, isGoal)
}

func pathAnyCost(g *grid.Grid, start grid.Point, isGoal []bool) []grid.Point {
	if !g.Contains(start) {
		return nil
	}
	parent := make([]int, g.Len())
	for i := range parent {
		parent[i] = -2
	}
	startIdx := g.Index(start)
	parent[startIdx] = -1
	queue := []int{startIdx}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if isGoal[cur] {
			return reconstruct(g, parent, cur)
		}
		p := g.PointAt(cur)
		for _, d := range offsets4 {
			nx, ny := p.X+d[0], p.Y+d[1]
			if !g.InBounds(nx, ny) {
				continue
			}
			n := ny*g.Cols() + nx
			if parent[n] != -2 {
				continue
			}
			parent[n] = cur
			queue = append(queue, n)
		}
	}
	return nil
}

func reconstruct(g *grid.Grid, parent []int, end int) []grid.Point {
	rev := make([]grid.Point, 0)
	for cur := end; cur != -1; cur = parent[cur] {
		rev = append(rev, g.PointAt(cur))
	}
	path := make([]grid.Point, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}
