package genotype

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/fitness"
	"arenaforge/internal/grid"
)

var testSpawns = []grid.Point{
	{X: 5, Y: 5}, {X: 54, Y: 5}, {X: 5, Y: 54}, {X: 54, Y: 54},
	{X: 5, Y: 30}, {X: 54, Y: 30},
	{X: 20, Y: 17}, {X: 39, Y: 17}, {X: 20, Y: 42}, {X: 39, Y: 42},
}

// openArena is a valid 60×60 vertical-mirror map: ten spawns, a box beside
// each, and a central box cluster.
func openArena() *grid.Grid {
	g := grid.New(60, 60)
	for _, p := range testSpawns {
		g.Put(p, grid.Spawn)
		if p.X < 30 {
			g.Put(p.Add(2, 0), grid.Box)
		} else {
			g.Put(p.Add(-2, 0), grid.Box)
		}
	}
	for _, x := range []int{25, 27, 32, 34} {
		for _, y := range []int{27, 30, 33} {
			g.Set(x, y, grid.Box)
		}
	}
	g.Set(29, 30, grid.Box)
	g.Set(30, 30, grid.Box)
	return g
}

func TestRepairReconnectsWallPartition(t *testing.T) {
	eval := fitness.MustEvaluator(fitness.DefaultConfig())
	g := openArena()
	for y := 0; y < g.Rows(); y++ {
		g.Set(29, y, grid.Wall)
		g.Set(30, y, grid.Wall)
	}
	boxes := g.Count(grid.Box)
	require.Equal(t, fitness.ConstraintConnectivity, eval.Evaluate(g, grid.Vertical).FailedConstraint)

	report := RepairConnectivity(g, grid.Vertical, 1)
	assert.True(t, report.Connected)
	assert.Positive(t, report.Carved)
	assert.Positive(t, g.Count(grid.Wall))
	assert.Equal(t, boxes, g.Count(grid.Box))
	assert.True(t, g.IsSymmetric(grid.Vertical))

	after := eval.Evaluate(g, grid.Vertical)
	assert.True(t, after.Passed, "failed %q", after.FailedConstraint)
	assert.Greater(t, after.Fitness, 0.0)
}

func TestRepairCarvesOnlyObstacles(t *testing.T) {
	g := grid.New(60, 60)
	g.Set(2, 2, grid.Spawn)
	g.Set(57, 2, grid.Spawn)
	for y := 0; y < 60; y++ {
		for x := 20; x < 40; x++ {
			g.Set(x, y, grid.Water)
		}
	}
	g.Set(25, 2, grid.Bush)
	g.Set(34, 2, grid.Bush)

	report := RepairConnectivity(g, grid.Vertical, 0)
	require.True(t, report.Connected)
	// The corridor runs along row 2 and the two bushes survive it.
	assert.Equal(t, 18, report.Carved)
	assert.Equal(t, grid.Bush, g.At(25, 2))
	assert.Equal(t, grid.Bush, g.At(34, 2))
	assert.NoError(t, CheckInvariants(g, grid.Vertical))
}

func TestRepairKeepsRandomSymmetricGridsSymmetric(t *testing.T) {
	obstacles := []grid.Tile{grid.Wall, grid.Water, grid.Cover}
	for seed := int64(1); seed <= 4; seed++ {
		rng := rand.New(rand.NewSource(seed))
		g := grid.New(60, 60)
		for i := 0; i < g.Len(); i++ {
			switch r := rng.Float64(); {
			case r < 0.45:
				g.Put(g.PointAt(i), obstacles[rng.Intn(len(obstacles))])
			case r < 0.55:
				g.Put(g.PointAt(i), grid.Bush)
			}
		}
		for _, p := range testSpawns {
			g.Put(p, grid.Spawn)
		}
		g.ApplySymmetry(grid.Vertical)

		report := RepairConnectivity(g, grid.Vertical, 1)
		require.True(t, report.Connected, "seed %d", seed)
		assert.True(t, g.IsSymmetric(grid.Vertical), "seed %d", seed)
		assert.NoError(t, CheckInvariants(g, grid.Vertical), "seed %d", seed)
		assert.Equal(t, 1, connectivity.Components(g, connectivity.Traversable()).Count(), "seed %d", seed)
	}
}

func TestRepairOnConnectedGridIsNoop(t *testing.T) {
	g := openArena()
	before := g.Clone()
	report := RepairConnectivity(g, grid.Vertical, 2)
	assert.True(t, report.Connected)
	assert.Zero(t, report.Passes)
	assert.True(t, g.Equal(before))
}

func TestRepairSpawnsTrimsAndFills(t *testing.T) {
	g := openArena()
	extra := []grid.Point{{X: 10, Y: 10}, {X: 12, Y: 50}}
	for _, p := range extra {
		g.Put(p, grid.Spawn)
	}
	assert.Equal(t, 10, RepairSpawns(g, grid.Vertical, 10, rand.New(rand.NewSource(1))))
	// Excess spawns are dropped from the end of scan order.
	assert.Equal(t, grid.Walkable, g.At(5, 54))
	assert.Equal(t, grid.Walkable, g.At(12, 50))
	assert.Equal(t, grid.Spawn, g.At(10, 10))
	g.ApplySymmetry(grid.Vertical)
	assert.Equal(t, 10, g.Count(grid.Spawn))

	sparse := grid.New(60, 60)
	sparse.Set(5, 5, grid.Spawn)
	sparse.Set(54, 5, grid.Spawn)
	other := sparse.Clone()
	assert.Equal(t, 10, RepairSpawns(sparse, grid.Vertical, 10, rand.New(rand.NewSource(4))))
	assert.Equal(t, 10, RepairSpawns(other, grid.Vertical, 10, rand.New(rand.NewSource(4))))
	assert.True(t, sparse.Equal(other))
	sparse.ApplySymmetry(grid.Vertical)
	assert.Equal(t, 10, sparse.Count(grid.Spawn))
}

func TestBalanceBoxesRespectsRange(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	g := openArena()
	for _, p := range []grid.Point{{X: 10, Y: 20}, {X: 11, Y: 20}, {X: 10, Y: 21}, {X: 15, Y: 50}, {X: 16, Y: 50}, {X: 15, Y: 51}, {X: 12, Y: 8}, {X: 3, Y: 40}} {
		g.Put(p, grid.Box)
	}
	g.ApplySymmetry(grid.Vertical)
	require.Equal(t, 40, g.Count(grid.Box))
	n := BalanceBoxes(g, grid.Vertical, 20, 35, rng)
	assert.Equal(t, n, g.Count(grid.Box))
	assert.LessOrEqual(t, n, 35)
	assert.GreaterOrEqual(t, n, 20)
	assert.True(t, g.IsSymmetric(grid.Vertical))

	sparse := grid.New(60, 60)
	for _, p := range testSpawns {
		sparse.Put(p, grid.Spawn)
	}
	n = BalanceBoxes(sparse, grid.Vertical, 20, 35, rng)
	assert.GreaterOrEqual(t, n, 20)
	assert.LessOrEqual(t, n, 35)
	assert.True(t, sparse.IsSymmetric(grid.Vertical))
	_, largest := connectivity.SameTileComponents(sparse, connectivity.Tiles(grid.Box)).Largest()
	assert.Equal(t, 1, largest)
}

func TestStampBarriersSeparatesClosePair(t *testing.T) {
	cfg := fitness.DefaultConfig()
	g := grid.New(60, 60)
	a, b := grid.Point{X: 24, Y: 17}, grid.Point{X: 35, Y: 17}
	g.Put(a, grid.Spawn)
	g.Put(b, grid.Spawn)

	n := StampBarriers(g, grid.Vertical, cfg, rand.New(rand.NewSource(2)))
	require.Equal(t, 1, n)
	for _, p := range g.Positions(grid.Wall) {
		assert.True(t, g.InSourceHalf(p, grid.Vertical))
	}
	g.ApplySymmetry(grid.Vertical)
	walls := g.Count(grid.Wall)
	assert.GreaterOrEqual(t, walls, 2*cfg.BarrierMinLength)
	assert.LessOrEqual(t, walls, 2*cfg.BarrierMaxLength)

	labels := connectivity.Components(g, connectivity.Impassable())
	assert.True(t, fitness.HasBarrier(g, labels, a, b, cfg.BarrierMinLength))

	far := grid.New(60, 60)
	far.Set(5, 5, grid.Spawn)
	far.Set(54, 5, grid.Spawn)
	assert.Zero(t, StampBarriers(far, grid.Vertical, cfg, rand.New(rand.NewSource(2))))
}

func TestBarrierCellsArePerpendicular(t *testing.T) {
	cells := BarrierCells(grid.Point{X: 0, Y: 10}, grid.Point{X: 10, Y: 12}, 4)
	assert.Equal(t, []grid.Point{{X: 5, Y: 9}, {X: 5, Y: 10}, {X: 5, Y: 11}, {X: 5, Y: 12}}, cells)

	cells = BarrierCells(grid.Point{X: 3, Y: 0}, grid.Point{X: 3, Y: 8}, 3)
	assert.Equal(t, []grid.Point{{X: 2, Y: 4}, {X: 3, Y: 4}, {X: 4, Y: 4}}, cells)
}

func TestCheckInvariants(t *testing.T) {
	g := openArena()
	require.NoError(t, CheckInvariants(g, grid.Vertical))

	g.Set(1, 1, grid.Wall)
	assert.True(t, errors.Is(CheckInvariants(g, grid.Vertical), ErrInvariantViolated))

	g = openArena()
	for y := 0; y < g.Rows(); y++ {
		g.Set(29, y, grid.Wall)
		g.Set(30, y, grid.Wall)
	}
	assert.ErrorIs(t, CheckInvariants(g, grid.Vertical), ErrInvariantViolated)
	assert.ErrorIs(t, CheckInvariants(nil, grid.Vertical), ErrInvariantViolated)
}
