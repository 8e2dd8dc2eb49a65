package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"arenaforge/internal/fitness"
	"arenaforge/internal/genotype"
	"arenaforge/internal/grid"
)

var arenaSpawns = []grid.Point{
	{X: 5, Y: 5}, {X: 54, Y: 5}, {X: 5, Y: 54}, {X: 54, Y: 54},
	{X: 5, Y: 30}, {X: 54, Y: 30},
	{X: 20, Y: 17}, {X: 39, Y: 17}, {X: 20, Y: 42}, {X: 39, Y: 42},
}

// arenaGrid is a valid open 60x60 map mirrored across the vertical axis.
func arenaGrid() *grid.Grid {
	g := grid.New(60, 60)
	for _, p := range arenaSpawns {
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

func arenaIndividual(id string, edit func(g *grid.Grid)) *genotype.Individual {
	g := arenaGrid()
	if edit != nil {
		edit(g)
		g.ApplySymmetry(grid.Vertical)
	}
	return &genotype.Individual{ID: id, Grid: g, Axis: grid.Vertical, Clearance: 1}
}

func fillRect(g *grid.Grid, t grid.Tile, x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			g.Set(x, y, t)
		}
	}
}

func newTestBuilder(t *testing.T) *genotype.Builder {
	t.Helper()
	cfg := genotype.DefaultBuilderConfig()
	cfg.MaxTries = 3
	b, err := genotype.NewBuilder(cfg, fitness.MustEvaluator(fitness.DefaultConfig()))
	require.NoError(t, err)
	return b
}

func builtIndividual(t *testing.T, seed int64, id string) *genotype.Individual {
	t.Helper()
	ind, _ := newTestBuilder(t).Build(rand.New(rand.NewSource(seed)), id)
	return ind
}
