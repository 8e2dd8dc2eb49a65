package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"arenaforge/internal/genotype"
	"arenaforge/internal/grid"
)

const (
	OpCrossover       = "crossover"
	defaultSpawnCount = 10
)

var ErrIncompatibleParents = errors.New("incompatible parents")

// ColumnCrossover takes the columns left of a random split from the first
// parent and the rest from the second, then repairs the child.
type ColumnCrossover struct {
	// SpawnCount is the spawn total the child is repaired to. Zero means 10.
	SpawnCount int
}

func (c *ColumnCrossover) Name() string {
	return OpCrossover
}

func (c *ColumnCrossover) Recombine(ctx context.Context, rng *rand.Rand, a, b *genotype.Individual) (*genotype.Individual, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := compatibleParents(a, b); err != nil {
		return nil, err
	}
	return crossoverAt(a, b, randomSplit(a.Grid.Cols(), rng), c.spawnCount(), rng)
}

func (c *ColumnCrossover) spawnCount() int {
	if c == nil || c.SpawnCount <= 0 {
		return defaultSpawnCount
	}
	return c.SpawnCount
}

// Crossover picks a split column in [1, cols-1] and delegates to CrossoverAt.
func Crossover(a, b *genotype.Individual, rng *rand.Rand) (*genotype.Individual, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := compatibleParents(a, b); err != nil {
		return nil, err
	}
	return crossoverAt(a, b, randomSplit(a.Grid.Cols(), rng), defaultSpawnCount, rng)
}

// CrossoverAt builds a child whose columns x < split come from a and the rest
// from b. The spawn count is repaired on the source half, then the child is
// mirrored, reconnected and checked. Neither parent is modified.
func CrossoverAt(a, b *genotype.Individual, split int, rng *rand.Rand) (*genotype.Individual, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := compatibleParents(a, b); err != nil {
		return nil, err
	}
	return crossoverAt(a, b, split, defaultSpawnCount, rng)
}

func randomSplit(cols int, rng *rand.Rand) int {
	return 1 + rng.Intn(max(1, cols-1))
}

func crossoverAt(a, b *genotype.Individual, split, spawns int, rng *rand.Rand) (*genotype.Individual, error) {
	rows, cols := a.Grid.Rows(), a.Grid.Cols()
	if split < 0 || split > cols {
		return nil, fmt.Errorf("split %d outside [0, %d]", split, cols)
	}

	g := grid.New(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if x < split {
				g.Set(x, y, a.Grid.At(x, y))
			} else {
				g.Set(x, y, b.Grid.At(x, y))
			}
		}
	}
	genotype.RepairSpawns(g, a.Axis, spawns, rng)
	g.ApplySymmetry(a.Axis)
	genotype.RepairConnectivity(g, a.Axis, a.Clearance)
	if err := genotype.CheckInvariants(g, a.Axis); err != nil {
		return nil, fmt.Errorf("%s: %w", OpCrossover, err)
	}
	return &genotype.Individual{
		Grid:      g,
		Axis:      a.Axis,
		Clearance: a.Clearance,
		ParentIDs: []string{a.ID, b.ID},
		Operation: OpCrossover,
	}, nil
}

func compatibleParents(a, b *genotype.Individual) error {
	if a == nil || b == nil || a.Grid == nil || b.Grid == nil {
		return fmt.Errorf("%w: both parents need a grid", ErrIncompatibleParents)
	}
	if a.Grid.Rows() != b.Grid.Rows() || a.Grid.Cols() != b.Grid.Cols() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrIncompatibleParents, a.Grid.Rows(), a.Grid.Cols(), b.Grid.Rows(), b.Grid.Cols())
	}
	if a.Axis != b.Axis {
		return fmt.Errorf("%w: axis %s vs %s", ErrIncompatibleParents, a.Axis, b.Axis)
	}
	return nil
}
