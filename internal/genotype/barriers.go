package genotype

import (
	"math/rand"

	"arenaforge/internal/fitness"
	"arenaforge/internal/grid"
)

// StampBarriers walls off every spawn pair that walks closer than the
// fairness distance with a Wall bar through the pair's midpoint,
// perpendicular to the line joining them. Only source-half cells are painted
// (a cell in the mirrored half is folded back onto its partner), so the
// barrier and its mirror both exist once the grid is mirrored. Spawn and Box
// cells are never overwritten. It returns the number of barriers stamped.
func StampBarriers(g *grid.Grid, axis grid.Axis, cfg fitness.Config, rng *rand.Rand) int {
	work := g.Clone()
	work.ApplySymmetry(axis)
	snap := fitness.NewSnapshot(work, axis, cfg)
	pairs := fitness.ClosePairs(snap)

	length := Range{Min: cfg.BarrierMinLength, Max: cfg.BarrierMaxLength}
	stamped := 0
	for _, pair := range pairs {
		a, b := snap.Spawns[pair[0]], snap.Spawns[pair[1]]
		if paintBarrier(g, axis, a, b, length.Sample(rng)) > 0 {
			stamped++
		}
	}
	return stamped
}

// BarrierCells returns the n cells of a bar through the midpoint of a and b,
// running perpendicular to the dominant direction of a→b.
func BarrierCells(a, b grid.Point, n int) []grid.Point {
	mid := grid.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	out := make([]grid.Point, 0, n)
	for i := 0; i < n; i++ {
		off := i - n/2
		if dx >= dy {
			out = append(out, mid.Add(0, off))
		} else {
			out = append(out, mid.Add(off, 0))
		}
	}
	return out
}

func paintBarrier(g *grid.Grid, axis grid.Axis, a, b grid.Point, n int) int {
	painted := 0
	for _, p := range BarrierCells(a, b, n) {
		if !g.Contains(p) {
			continue
		}
		if !g.InSourceHalf(p, axis) {
			p = g.Mirror(p, axis)
		}
		switch g.Get(p) {
		case grid.Spawn, grid.Box, grid.Wall:
			continue
		}
		g.Put(p, grid.Wall)
		painted++
	}
	return painted
}
