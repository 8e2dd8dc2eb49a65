package evo

import (
	"context"
	"math/rand"

	"arenaforge/internal/genotype"
)

// Operator produces a new individual from an existing one. Implementations
// never modify the input.
type Operator interface {
	Name() string
	Apply(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error)
}

// Recombiner produces one child from two parents.
type Recombiner interface {
	Name() string
	Recombine(ctx context.Context, rng *rand.Rand, a, b *genotype.Individual) (*genotype.Individual, error)
}

// WeightedMutation is one entry of a mutation policy.
type WeightedMutation struct {
	Operator Operator
	Weight   float64
}
