package evo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaforge/internal/genotype"
	"arenaforge/internal/grid"
)

func TestMutationsKeepInvariants(t *testing.T) {
	ops := []Operator{&AddStructure{}, &RemoveObstacle{}, &ShiftRegion{}, &AddBush{}, &SwapTiles{}}
	parent := builtIndividual(t, 11, "parent")
	parent.SetFitness(4)
	before := parent.Fingerprint()

	for _, op := range ops {
		applied := 0
		for seed := int64(1); seed <= 5; seed++ {
			child, err := op.Apply(context.Background(), rand.New(rand.NewSource(seed)), parent)
			if errors.Is(err, ErrNoMutationChoice) {
				continue
			}
			require.NoError(t, err, "%s seed %d", op.Name(), seed)
			applied++
			assert.True(t, child.Grid.IsSymmetric(child.Axis), op.Name())
			assert.NoError(t, genotype.CheckInvariants(child.Grid, child.Axis), op.Name())
			assert.Nil(t, child.Fitness, op.Name())
			assert.Equal(t, parent.Grid.Count(grid.Spawn), child.Grid.Count(grid.Spawn), op.Name())
		}
		assert.Positive(t, applied, op.Name())
	}
	assert.Equal(t, before, parent.Fingerprint())
	assert.Equal(t, 4.0, parent.FitnessValue())
}

func TestRemoveObstacleAtClearsSmallComponent(t *testing.T) {
	parent := arenaIndividual("p", func(g *grid.Grid) {
		fillRect(g, grid.Wall, 10, 35, 3, 3)
	})
	require.Equal(t, 18, parent.Grid.Count(grid.Wall))

	child, err := RemoveObstacleAt{Point: grid.Point{X: 11, Y: 36}}.Apply(context.Background(), nil, parent)
	require.NoError(t, err)
	assert.Zero(t, child.Grid.Count(grid.Wall))
	assert.Equal(t, 18, parent.Grid.Count(grid.Wall))

	// A point on the mirrored half removes the same pair.
	child, err = RemoveObstacleAt{Point: grid.Point{X: 48, Y: 36}}.Apply(context.Background(), nil, parent)
	require.NoError(t, err)
	assert.Zero(t, child.Grid.Count(grid.Wall))

	_, err = RemoveObstacleAt{Point: grid.Point{X: 0, Y: 0}}.Apply(context.Background(), nil, parent)
	assert.ErrorIs(t, err, ErrNoMutationChoice)
}

func TestRemoveObstacleAtTrimsLargeComponent(t *testing.T) {
	parent := arenaIndividual("p", func(g *grid.Grid) {
		fillRect(g, grid.Water, 3, 45, 20, 1)
	})
	require.Equal(t, 40, parent.Grid.Count(grid.Water))

	child, err := RemoveObstacleAt{Point: grid.Point{X: 10, Y: 45}, MaxCells: 12}.Apply(context.Background(), nil, parent)
	require.NoError(t, err)
	assert.Equal(t, 34, child.Grid.Count(grid.Water))
	for _, x := range []int{9, 10, 11} {
		assert.Equal(t, grid.Walkable, child.Grid.At(x, 45))
		assert.Equal(t, grid.Walkable, child.Grid.At(59-x, 45))
	}
	assert.Equal(t, grid.Water, child.Grid.At(8, 45))
}

func TestRemoveObstacleWithoutObstacles(t *testing.T) {
	_, err := (&RemoveObstacle{}).Apply(context.Background(), rand.New(rand.NewSource(1)), arenaIndividual("p", nil))
	assert.ErrorIs(t, err, ErrNoMutationChoice)
}

func TestShiftRegionMovesComponent(t *testing.T) {
	parent := arenaIndividual("p", func(g *grid.Grid) {
		fillRect(g, grid.Cover, 10, 36, 2, 2)
	})
	child, err := (&ShiftRegion{}).Apply(context.Background(), rand.New(rand.NewSource(3)), parent)
	require.NoError(t, err)
	assert.Equal(t, 8, child.Grid.Count(grid.Cover))
	assert.False(t, child.Grid.Equal(parent.Grid))
	for _, p := range child.Grid.Positions(grid.Cover) {
		if p.X < 30 {
			assert.LessOrEqual(t, abs(p.X-10), 4)
			assert.LessOrEqual(t, abs(p.Y-36), 4)
		}
	}
}

func TestAddBushAndStructure(t *testing.T) {
	parent := arenaIndividual("p", nil)
	rng := rand.New(rand.NewSource(5))

	child, err := (&AddBush{MinRadius: 2, MaxRadius: 3}).Apply(context.Background(), rng, parent)
	require.NoError(t, err)
	assert.Positive(t, child.Grid.Count(grid.Bush))
	assert.True(t, child.Grid.IsSymmetric(grid.Vertical))
	assert.Zero(t, parent.Grid.Count(grid.Bush))

	child, err = (&AddStructure{Kinds: []genotype.StructureKind{genotype.WallBlock}}).Apply(context.Background(), rng, parent)
	require.NoError(t, err)
	assert.Positive(t, child.Grid.Count(grid.Wall))
	assert.Zero(t, parent.Grid.Count(grid.Wall))
}

func TestMutationInputValidation(t *testing.T) {
	parent := arenaIndividual("p", nil)
	_, err := (&AddBush{}).Apply(context.Background(), nil, parent)
	assert.EqualError(t, err, "random source is required")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&AddStructure{}).Apply(ctx, rand.New(rand.NewSource(1)), parent)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = (&SwapTiles{}).Apply(context.Background(), rand.New(rand.NewSource(1)), &genotype.Individual{})
	assert.Error(t, err)
}

func TestFinishMutationMirrorsSourceHalf(t *testing.T) {
	child := arenaIndividual("c", nil)
	child.Grid.Set(10, 10, grid.Wall)
	child.Grid.Set(45, 12, grid.Water)

	out, err := finishMutation("test", child)
	require.NoError(t, err)
	assert.Equal(t, grid.Wall, out.Grid.At(49, 10))
	assert.Equal(t, grid.Walkable, out.Grid.At(45, 12))
	assert.True(t, out.Grid.IsSymmetric(grid.Vertical))
}
