package genotype

import (
	"math/rand"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/grid"
)

// PlaceSupplyBoxes puts count boxes near spawn on Walkable source-half
// cells two to four steps away. It returns how many were placed.
func PlaceSupplyBoxes(g *grid.Grid, axis grid.Axis, spawn grid.Point, count int, rng *rand.Rand) int {
	placed := 0
	for try := 0; placed < count && try < 40*count; try++ {
		p := spawn.Add(rng.Intn(9)-4, rng.Intn(9)-4)
		d := grid.Manhattan(p, spawn)
		if d < 2 || d > 4 || !placeableBox(g, axis, p) {
			continue
		}
		g.Put(p, grid.Box)
		placed++
	}
	return placed
}

// PlaceCenterBoxes puts count boxes on Walkable source-half cells within
// radius of the grid center.
func PlaceCenterBoxes(g *grid.Grid, axis grid.Axis, count, radius int, rng *rand.Rand) int {
	center := g.Center()
	placed := 0
	for try := 0; placed < count && try < 40*count; try++ {
		p := center.Add(rng.Intn(2*radius+1)-radius, rng.Intn(2*radius+1)-radius)
		if grid.Euclidean(p, center) > float64(radius) || !placeableBox(g, axis, p) {
			continue
		}
		g.Put(p, grid.Box)
		placed++
	}
	return placed
}

// placeableBox keeps single boxes off the axis and away from other boxes so
// that they never grow an existing clump.
func placeableBox(g *grid.Grid, axis grid.Axis, p grid.Point) bool {
	if !g.Contains(p) || !g.InSourceHalf(p, axis) || g.OnAxis(p, axis) || g.Get(p) != grid.Walkable {
		return false
	}
	m := g.Mirror(p, axis)
	for _, n := range connectivity.Neighbors4(g, p) {
		if n == m || g.Get(n) == grid.Box {
			return false
		}
	}
	return true
}

// BalanceBoxes adds or removes mirrored box pairs on a symmetric grid until
// the box count lies in [lo, hi]. Removal prefers boxes inside clumps;
// additions land near a random source-half spawn. It returns the final count.
func BalanceBoxes(g *grid.Grid, axis grid.Axis, lo, hi int, rng *rand.Rand) int {
	count := g.Count(grid.Box)
	for count > hi {
		p, ok := removableBox(g, axis, rng)
		if !ok {
			break
		}
		count -= setPair(g, axis, p, grid.Walkable)
	}
	var anchors []grid.Point
	for _, sp := range g.Positions(grid.Spawn) {
		if g.InSourceHalf(sp, axis) {
			anchors = append(anchors, sp)
		}
	}
	anchors = append(anchors, g.Center())
	for try := 0; count < lo && try < 200*lo; try++ {
		anchor := anchors[rng.Intn(len(anchors))]
		p := anchor.Add(rng.Intn(13)-6, rng.Intn(13)-6)
		if !placeableBox(g, axis, p) {
			continue
		}
		count += setPair(g, axis, p, grid.Box)
	}
	return count
}

func removableBox(g *grid.Grid, axis grid.Axis, rng *rand.Rand) (grid.Point, bool) {
	var clumped, loose []grid.Point
	for _, b := range g.Positions(grid.Box) {
		if !g.InSourceHalf(b, axis) {
			continue
		}
		inClump := false
		for _, n := range connectivity.Neighbors4(g, b) {
			if g.Get(n) == grid.Box {
				inClump = true
				break
			}
		}
		if inClump {
			clumped = append(clumped, b)
		} else {
			loose = append(loose, b)
		}
	}
	switch {
	case len(clumped) > 0:
		return clumped[rng.Intn(len(clumped))], true
	case len(loose) > 0:
		return loose[rng.Intn(len(loose))], true
	}
	return grid.Point{}, false
}

// setPair writes t at p and its mirror and returns how many cells that adds
// to (or, for Walkable, removes from) the box count.
func setPair(g *grid.Grid, axis grid.Axis, p grid.Point, t grid.Tile) int {
	g.Put(p, t)
	m := g.Mirror(p, axis)
	if m == p {
		return 1
	}
	g.Put(m, t)
	return 2
}
