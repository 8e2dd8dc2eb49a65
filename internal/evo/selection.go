package evo

import (
	"fmt"
	"math/rand"

	"arenaforge/internal/fitness"
	"arenaforge/internal/genotype"
)

// ScoredIndividual pairs an individual with its ranking fitness and the
// evaluator report behind it.
type ScoredIndividual struct {
	Individual *genotype.Individual
	Fitness    float64
	Report     fitness.Report
}

// Selector chooses parents from a population ranked best first.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredIndividual, eliteCount int) (*genotype.Individual, error)
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredIndividual, eliteCount int) (*genotype.Individual, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return nil, fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return ranked[rng.Intn(eliteCount)].Individual, nil
}

// TournamentSelector draws TournamentSize distinct contestants from the first
// PoolSize ranked individuals and returns the fittest.
type TournamentSelector struct {
	// PoolSize limits the candidates; zero means the whole population.
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredIndividual, eliteCount int) (*genotype.Individual, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranked population is empty")
	}
	if eliteCount < 0 || eliteCount > len(ranked) {
		return nil, fmt.Errorf("invalid elite count: %d", eliteCount)
	}

	poolSize := s.PoolSize
	if poolSize <= 0 || poolSize > len(ranked) {
		poolSize = len(ranked)
	}
	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	best := -1
	for _, idx := range rng.Perm(poolSize)[:tournamentSize] {
		if best < 0 || ranked[idx].Fitness > ranked[best].Fitness {
			best = idx
		}
	}
	return ranked[best].Individual, nil
}

// ResolveSelector maps a configured name to a selector.
func ResolveSelector(name string, tournamentSize int) (Selector, error) {
	switch name {
	case "", "tournament":
		return TournamentSelector{TournamentSize: tournamentSize}, nil
	case "elite":
		return EliteSelector{}, nil
	}
	return nil, fmt.Errorf("unknown selector %q", name)
}

func cloneScored(scored []ScoredIndividual) []ScoredIndividual {
	out := make([]ScoredIndividual, len(scored))
	copy(out, scored)
	return out
}
