package evo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaforge/internal/grid"
)

func TestNoopPostprocessorCopies(t *testing.T) {
	in := rankedFixture(3, 2)
	out := NoopFitnessPostprocessor{}.Process(in)
	out[0].Fitness = 99
	assert.Equal(t, 3.0, in[0].Fitness)
}

func TestDuplicatePenaltySharesFitness(t *testing.T) {
	a := arenaIndividual("a", nil)
	b := a.Clone()
	b.ID = "b"
	c := arenaIndividual("c", func(g *grid.Grid) {
		fillRect(g, grid.Wall, 10, 35, 3, 3)
	})
	in := []ScoredIndividual{
		{Individual: a, Fitness: 12},
		{Individual: b, Fitness: 12},
		{Individual: c, Fitness: 9},
		{Fitness: 1},
	}

	out := DuplicatePenaltyPostprocessor{}.Process(in)
	require.Len(t, out, 4)
	assert.Equal(t, 6.0, out[0].Fitness)
	assert.Equal(t, 6.0, out[1].Fitness)
	assert.Equal(t, 9.0, out[2].Fitness)
	assert.Equal(t, 1.0, out[3].Fitness)
	assert.Equal(t, 12.0, in[0].Fitness)
}

func TestResolvePostprocessor(t *testing.T) {
	for name, want := range map[string]string{"": "none", "none": "none", "duplicate_penalty": "duplicate_penalty"} {
		pp, err := ResolvePostprocessor(name)
		require.NoError(t, err)
		assert.Equal(t, want, pp.Name())
	}
	_, err := ResolvePostprocessor("novelty")
	assert.Error(t, err)
}
