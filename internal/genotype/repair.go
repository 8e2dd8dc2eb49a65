package genotype

import (
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/grid"
)

// RepairReport summarizes one connectivity repair.
type RepairReport struct {
	Passes    int  `json:"passes"`
	Carved    int  `json:"carved"`
	Connected bool `json:"connected"`
}

// RepairConnectivity carves corridors until every spawn, and every other
// traversable cell, belongs to the component of the first spawn. Each
// corridor is the cheapest any-cost path from an unreached cell to the
// reached set; obstacles on it, within clearance of it, and at the mirror
// of any of those become Walkable, so a symmetric grid stays symmetric.
func RepairConnectivity(g *grid.Grid, axis grid.Axis, clearance int) RepairReport {
	var report RepairReport
	passable := connectivity.Traversable()
	for report.Passes < g.Len() {
		root, ok := repairRoot(g)
		if !ok {
			report.Connected = true
			return report
		}
		reached := connectivity.Reachable(g, root, passable)
		target, ok := firstUnreached(g, reached)
		if !ok {
			report.Connected = true
			return report
		}
		path := connectivity.PathToSet(g, target, reached)
		if path == nil {
			break
		}
		report.Passes++
		carved := carve(g, axis, path, clearance)
		if carved == 0 {
			break
		}
		report.Carved += carved
	}
	report.Connected = connectivity.Components(g, passable).Count() <= 1
	return report
}

// repairRoot is the first spawn, or the first traversable cell on maps
// without spawns.
func repairRoot(g *grid.Grid) (grid.Point, bool) {
	if spawns := g.Positions(grid.Spawn); len(spawns) > 0 {
		return spawns[0], true
	}
	for i, t := range g.Tiles() {
		if t.Traversable() {
			return g.PointAt(i), true
		}
	}
	return grid.Point{}, false
}

// firstUnreached prefers unreached spawns over other stray cells.
func firstUnreached(g *grid.Grid, reached mapset.Set[grid.Point]) (grid.Point, bool) {
	for _, sp := range g.Positions(grid.Spawn) {
		if !reached.Has(sp) {
			return sp, true
		}
	}
	for i, t := range g.Tiles() {
		p := g.PointAt(i)
		if t.Traversable() && !reached.Has(p) {
			return p, true
		}
	}
	return grid.Point{}, false
}

func carve(g *grid.Grid, axis grid.Axis, path []grid.Point, clearance int) int {
	carved := 0
	open := func(p grid.Point) {
		for _, q := range [2]grid.Point{p, g.Mirror(p, axis)} {
			if g.Contains(q) && g.Get(q).Impassable() {
				g.Put(q, grid.Walkable)
				carved++
			}
		}
	}
	for _, p := range path {
		open(p)
	}
	if clearance > 0 {
		for _, p := range path {
			for dy := -clearance; dy <= clearance; dy++ {
				for dx := -clearance; dx <= clearance; dx++ {
					open(p.Add(dx, dy))
				}
			}
		}
	}
	return carved
}

// RepairSpawns brings the spawn count of the mirrored grid to want. Only the
// source half is edited and the caller is expected to mirror afterwards:
// excess source spawns are dropped from the end of scan order, missing ones
// are added at random Walkable source cells. It returns the spawn count the
// grid will have once mirrored.
func RepairSpawns(g *grid.Grid, axis grid.Axis, want int, rng *rand.Rand) int {
	weight := func(p grid.Point) int {
		if g.OnAxis(p, axis) {
			return 1
		}
		return 2
	}
	var source []grid.Point
	total := 0
	for _, sp := range g.Positions(grid.Spawn) {
		if g.InSourceHalf(sp, axis) {
			source = append(source, sp)
			total += weight(sp)
		}
	}
	for len(source) > 0 && total > want {
		last := source[len(source)-1]
		source = source[:len(source)-1]
		total -= weight(last)
		g.Put(last, grid.Walkable)
	}

	maxX, maxY := g.SourceBounds(axis)
	for attempts := 0; total < want && attempts < 20*g.Len(); attempts++ {
		p := grid.Point{X: rng.Intn(maxX), Y: rng.Intn(maxY)}
		if g.Get(p) != grid.Walkable || total+weight(p) > want {
			continue
		}
		g.Put(p, grid.Spawn)
		total += weight(p)
	}
	return total
}
