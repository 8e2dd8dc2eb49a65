package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"arenaforge/internal/genotype"
)

var (
	ErrOperatorExists       = errors.New("operator already registered")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrOperatorIncompatible = errors.New("operator incompatible with individual")
)

type CompatibilityFn func(ind *genotype.Individual) error

type OperatorSpec struct {
	Name       string
	Operator   Operator
	Compatible CompatibilityFn
}

type registeredOperator struct {
	operator   Operator
	compatible CompatibilityFn
}

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredOperator
}{
	m: make(map[string]registeredOperator),
}

// RegisterOperator registers an operator without a compatibility check.
func RegisterOperator(name string, op Operator) error {
	return RegisterOperatorWithSpec(OperatorSpec{Name: name, Operator: op})
}

// RegisterOperatorWithSpec registers an operator with compatibility metadata.
func RegisterOperatorWithSpec(spec OperatorSpec) error {
	if spec.Name == "" {
		return errors.New("operator name is required")
	}
	if spec.Operator == nil {
		return errors.New("operator is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, spec.Name)
	}
	operatorRegistry.m[spec.Name] = registeredOperator{
		operator:   spec.Operator,
		compatible: spec.Compatible,
	}
	return nil
}

// RegisterBuiltinOperators registers the map mutations under their own
// names. Names already present are left alone.
func RegisterBuiltinOperators() error {
	builtins := []OperatorSpec{
		{Name: OpAddStructure, Operator: &AddStructure{}, Compatible: requireGrid},
		{Name: OpRemoveObstacle, Operator: &RemoveObstacle{}, Compatible: requireGrid},
		{Name: OpShiftRegion, Operator: &ShiftRegion{}, Compatible: requireGrid},
		{Name: OpAddBush, Operator: &AddBush{}, Compatible: requireGrid},
		{Name: OpSwapTiles, Operator: &SwapTiles{}, Compatible: requireGrid},
	}
	for _, spec := range builtins {
		if err := RegisterOperatorWithSpec(spec); err != nil && !errors.Is(err, ErrOperatorExists) {
			return err
		}
	}
	return nil
}

func requireGrid(ind *genotype.Individual) error {
	if ind == nil || ind.Grid == nil {
		return errors.New("individual has no grid")
	}
	return nil
}

// ResolveOperator returns a registered operator by name.
func ResolveOperator(name string) (Operator, error) {
	entry, ok := lookupOperator(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return entry.operator, nil
}

// ResolveOperatorFor returns a registered operator only if its compatibility
// check accepts ind.
func ResolveOperatorFor(name string, ind *genotype.Individual) (Operator, error) {
	entry, ok := lookupOperator(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	if entry.compatible != nil {
		if err := entry.compatible(ind); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOperatorIncompatible, name, err)
		}
	}
	return entry.operator, nil
}

// PolicyFromWeights resolves a name->weight table into a mutation policy,
// ordered by name so that weighted picks are reproducible.
func PolicyFromWeights(weights map[string]float64) ([]WeightedMutation, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	policy := make([]WeightedMutation, 0, len(names))
	for _, name := range names {
		op, err := ResolveOperator(name)
		if err != nil {
			return nil, err
		}
		policy = append(policy, WeightedMutation{Operator: op, Weight: weights[name]})
	}
	return policy, nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupOperator(name string) (registeredOperator, bool) {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	entry, ok := operatorRegistry.m[name]
	return entry, ok
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	operatorRegistry.m = make(map[string]registeredOperator)
}
