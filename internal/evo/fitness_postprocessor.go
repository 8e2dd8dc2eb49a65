package evo

import "fmt"

// FitnessPostprocessor adjusts ranking fitness after evaluation and before
// sorting and selection. It never touches the individuals themselves.
type FitnessPostprocessor interface {
	Name() string
	Process(scored []ScoredIndividual) []ScoredIndividual
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(scored []ScoredIndividual) []ScoredIndividual {
	return cloneScored(scored)
}

// DuplicatePenaltyPostprocessor divides the fitness of every individual by
// the number of population members sharing its grid fingerprint, so copies of
// one map share a single map's worth of fitness.
type DuplicatePenaltyPostprocessor struct{}

func (DuplicatePenaltyPostprocessor) Name() string {
	return "duplicate_penalty"
}

func (DuplicatePenaltyPostprocessor) Process(scored []ScoredIndividual) []ScoredIndividual {
	out := cloneScored(scored)
	keys := make([]string, len(out))
	counts := make(map[string]int, len(out))
	for i, item := range out {
		if item.Individual == nil || item.Individual.Grid == nil {
			continue
		}
		keys[i] = item.Individual.Fingerprint()
		counts[keys[i]]++
	}
	for i := range out {
		if n := counts[keys[i]]; n > 1 {
			out[i].Fitness /= float64(n)
		}
	}
	return out
}

// ResolvePostprocessor maps a configured name to a postprocessor. The empty
// name means "none".
func ResolvePostprocessor(name string) (FitnessPostprocessor, error) {
	switch name {
	case "", "none":
		return NoopFitnessPostprocessor{}, nil
	case "duplicate_penalty":
		return DuplicatePenaltyPostprocessor{}, nil
	}
	return nil, fmt.Errorf("unknown fitness postprocessor %q", name)
}
