package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"arenaforge/internal/fitness"
	"arenaforge/internal/genotype"
)

const (
	DefaultMutationRate   = 0.9
	DefaultTournamentSize = 3
)

// Stop reasons reported in RunResult.
const (
	StopGenerations = "generations"
	StopTimeBudget  = "time_budget"
)

type RunResult struct {
	Best                  ScoredIndividual
	BestByGeneration      []float64
	GenerationDiagnostics []GenerationDiagnostics
	FinalPopulation       []ScoredIndividual
	Lineage               []LineageRecord
	InitialBuilds         []genotype.BuildReport
	StopReason            string
}

type GenerationDiagnostics struct {
	Generation           int            `json:"generation"`
	BestFitness          float64        `json:"best_fitness"`
	MeanFitness          float64        `json:"mean_fitness"`
	MinFitness           float64        `json:"min_fitness"`
	ValidCount           int            `json:"valid_count"`
	FingerprintDiversity int            `json:"fingerprint_diversity"`
	FailedConstraints    map[string]int `json:"failed_constraints,omitempty"`
	ElapsedMillis        int64          `json:"elapsed_ms"`
}

type LineageRecord struct {
	IndividualID string   `json:"individual_id"`
	ParentIDs    []string `json:"parent_ids,omitempty"`
	Generation   int      `json:"generation"`
	Operation    string   `json:"operation"`
	Fingerprint  string   `json:"fingerprint,omitempty"`
}

type MonitorConfig struct {
	Builder        *genotype.Builder
	Evaluator      *fitness.Evaluator
	MutationPolicy []WeightedMutation
	Crossover      Recombiner
	Selector       Selector
	Postprocessor  FitnessPostprocessor
	PopulationSize int
	// EliteCount defaults to max(1, PopulationSize/10).
	EliteCount int
	// MutationRate is the chance a crossover child is mutated; zero means
	// DefaultMutationRate and a negative value disables mutation.
	MutationRate float64
	Generations  int
	// TimeBudget stops the run after the generation in progress when
	// exceeded. Zero means no limit.
	TimeBudget time.Duration
	Workers    int
	Seed       int64
	Logger     *slog.Logger
	// OnGeneration, when set, is called after each generation is ranked.
	OnGeneration func(GenerationDiagnostics, ScoredIndividual)
}

type PopulationMonitor struct {
	cfg    MonitorConfig
	rng    *rand.Rand
	logger *slog.Logger
	now    func() time.Time
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Builder == nil {
		return nil, fmt.Errorf("builder is required")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if len(cfg.MutationPolicy) == 0 {
		cfg.MutationPolicy = DefaultMutationPolicy()
	}
	positivePolicyWeight := false
	for i, item := range cfg.MutationPolicy {
		if item.Operator == nil {
			return nil, fmt.Errorf("mutation policy operator is required at index %d", i)
		}
		if item.Weight < 0 {
			return nil, fmt.Errorf("mutation policy weight must be >= 0 at index %d", i)
		}
		if item.Weight > 0 {
			positivePolicyWeight = true
		}
	}
	if !positivePolicyWeight {
		return nil, fmt.Errorf("mutation policy requires at least one positive weight")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.EliteCount == 0 {
		cfg.EliteCount = max(1, cfg.PopulationSize/10)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("elite count must be in [1, population size]")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.MutationRate == 0 {
		cfg.MutationRate = DefaultMutationRate
	}
	if cfg.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be <= 1")
	}
	if cfg.TimeBudget < 0 {
		return nil, fmt.Errorf("time budget must be >= 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Crossover == nil {
		cfg.Crossover = &ColumnCrossover{SpawnCount: cfg.Evaluator.Config().SpawnCount}
	}
	if cfg.Selector == nil {
		cfg.Selector = TournamentSelector{TournamentSize: DefaultTournamentSize}
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &PopulationMonitor{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logger,
		now:    time.Now,
	}, nil
}

func (m *PopulationMonitor) Config() MonitorConfig {
	return m.cfg
}

// Run builds the initial population and evolves it until the generation
// count or the time budget is used up. Cancelling ctx aborts the run with
// ctx's error.
func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	start := m.now()
	population, builds, err := m.buildPopulation(ctx)
	if err != nil {
		return RunResult{}, err
	}

	bestHistory := make([]float64, 0, m.cfg.Generations)
	diagnostics := make([]GenerationDiagnostics, 0, m.cfg.Generations)
	lineage := make([]LineageRecord, 0, len(population)*(m.cfg.Generations+1))
	for _, ind := range population {
		lineage = append(lineage, LineageRecord{
			IndividualID: ind.ID,
			Generation:   0,
			Operation:    ind.Operation,
			Fingerprint:  ind.Fingerprint(),
		})
	}

	var scored []ScoredIndividual
	stop := StopGenerations
	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		scored, err = m.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
		scored = m.cfg.Postprocessor.Process(scored)
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Fitness > scored[j].Fitness
		})

		bestHistory = append(bestHistory, scored[0].Fitness)
		diag := summarizeGeneration(scored, gen)
		diag.ElapsedMillis = m.now().Sub(start).Milliseconds()
		diagnostics = append(diagnostics, diag)
		m.logger.Info("generation evaluated",
			"generation", gen,
			"best", diag.BestFitness,
			"mean", diag.MeanFitness,
			"valid", diag.ValidCount,
			"diversity", diag.FingerprintDiversity,
		)
		if m.cfg.OnGeneration != nil {
			m.cfg.OnGeneration(diag, scored[0])
		}

		if gen == m.cfg.Generations-1 {
			break
		}
		if m.cfg.TimeBudget > 0 && m.now().Sub(start) >= m.cfg.TimeBudget {
			stop = StopTimeBudget
			m.logger.Info("time budget exhausted", "generation", gen, "budget", m.cfg.TimeBudget)
			break
		}

		var generationLineage []LineageRecord
		population, generationLineage, err = m.nextGeneration(ctx, scored, gen)
		if err != nil {
			return RunResult{}, err
		}
		lineage = append(lineage, generationLineage...)
	}

	return RunResult{
		Best:                  scored[0],
		BestByGeneration:      bestHistory,
		GenerationDiagnostics: diagnostics,
		FinalPopulation:       scored,
		Lineage:               lineage,
		InitialBuilds:         builds,
		StopReason:            stop,
	}, nil
}

// buildPopulation builds the initial individuals on the worker pool. Each
// builder gets its own stream seeded in order from the master stream, so the
// result does not depend on the worker count.
func (m *PopulationMonitor) buildPopulation(ctx context.Context) ([]*genotype.Individual, []genotype.BuildReport, error) {
	size := m.cfg.PopulationSize
	seeds := make([]int64, size)
	for i := range seeds {
		seeds[i] = m.rng.Int63()
	}

	population := make([]*genotype.Individual, size)
	reports := make([]genotype.BuildReport, size)
	p := pool.New().WithMaxGoroutines(m.cfg.Workers)
	for i := 0; i < size; i++ {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			population[i], reports[i] = m.cfg.Builder.Build(rng, fmt.Sprintf("g0-i%d", i))
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	valid := 0
	for _, r := range reports {
		if r.Valid {
			valid++
		}
	}
	m.logger.Info("initial population built", "size", size, "valid", valid)
	return population, reports, nil
}

func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []*genotype.Individual) ([]ScoredIndividual, error) {
	scored := make([]ScoredIndividual, len(population))
	p := pool.New().WithMaxGoroutines(min(m.cfg.Workers, len(population)))
	for i, ind := range population {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			report := m.cfg.Evaluator.Evaluate(ind.Grid, ind.Axis)
			ind.SetFitness(report.Fitness)
			scored[i] = ScoredIndividual{Individual: ind, Fitness: report.Fitness, Report: report}
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scored, nil
}

func summarizeGeneration(scored []ScoredIndividual, generation int) GenerationDiagnostics {
	if len(scored) == 0 {
		return GenerationDiagnostics{Generation: generation}
	}

	total := 0.0
	minFitness := scored[0].Fitness
	valid := 0
	failed := map[string]int{}
	fingerprints := make(map[string]struct{}, len(scored))
	for _, item := range scored {
		total += item.Fitness
		if item.Fitness < minFitness {
			minFitness = item.Fitness
		}
		if item.Report.Passed {
			valid++
		} else if item.Report.FailedConstraint != "" {
			failed[item.Report.FailedConstraint]++
		}
		fingerprints[item.Individual.Fingerprint()] = struct{}{}
	}
	if len(failed) == 0 {
		failed = nil
	}

	return GenerationDiagnostics{
		Generation:           generation,
		BestFitness:          scored[0].Fitness,
		MeanFitness:          total / float64(len(scored)),
		MinFitness:           minFitness,
		ValidCount:           valid,
		FingerprintDiversity: len(fingerprints),
		FailedConstraints:    failed,
	}
}

func (m *PopulationMonitor) nextGeneration(ctx context.Context, ranked []ScoredIndividual, generation int) ([]*genotype.Individual, []LineageRecord, error) {
	next := make([]*genotype.Individual, 0, m.cfg.PopulationSize)
	lineage := make([]LineageRecord, 0, m.cfg.PopulationSize)
	nextGeneration := generation + 1

	for i := 0; i < m.cfg.EliteCount; i++ {
		parent := ranked[i].Individual
		elite := parent.Clone()
		elite.ParentIDs = []string{parent.ID}
		elite.Operation = "elite_clone"
		elite.Generation = nextGeneration
		next = append(next, elite)
		lineage = append(lineage, LineageRecord{
			IndividualID: elite.ID,
			ParentIDs:    elite.ParentIDs,
			Generation:   nextGeneration,
			Operation:    elite.Operation,
			Fingerprint:  elite.Fingerprint(),
		})
	}

	for len(next) < m.cfg.PopulationSize {
		child, record, err := m.offspring(ctx, ranked, nextGeneration, len(next))
		if err != nil {
			return nil, nil, err
		}
		next = append(next, child)
		lineage = append(lineage, record)
	}
	return next, lineage, nil
}

// offspring selects two parents, recombines them and mutates the child with
// probability MutationRate.
func (m *PopulationMonitor) offspring(ctx context.Context, ranked []ScoredIndividual, generation, index int) (*genotype.Individual, LineageRecord, error) {
	a, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
	if err != nil {
		return nil, LineageRecord{}, fmt.Errorf("pick parent: %w", err)
	}
	b, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
	if err != nil {
		return nil, LineageRecord{}, fmt.Errorf("pick parent: %w", err)
	}

	child, err := m.cfg.Crossover.Recombine(ctx, m.rng, a, b)
	if err != nil {
		return nil, LineageRecord{}, err
	}
	operations := []string{m.cfg.Crossover.Name()}

	if m.rng.Float64() < m.cfg.MutationRate {
		operator := m.chooseMutation()
		mutated, opErr := operator.Apply(ctx, m.rng, child)
		switch {
		case opErr == nil:
			child = mutated
			operations = append(operations, operator.Name())
		case errors.Is(opErr, ErrNoMutationChoice):
			operations = append(operations, "noop("+operator.Name()+")")
		default:
			return nil, LineageRecord{}, opErr
		}
	}

	child.ID = fmt.Sprintf("g%d-i%d", generation, index)
	child.ParentIDs = []string{a.ID, b.ID}
	child.Operation = strings.Join(operations, "+")
	child.Generation = generation
	child.Fitness = nil
	return child, LineageRecord{
		IndividualID: child.ID,
		ParentIDs:    child.ParentIDs,
		Generation:   generation,
		Operation:    child.Operation,
		Fingerprint:  child.Fingerprint(),
	}, nil
}

func (m *PopulationMonitor) chooseMutation() Operator {
	total := 0.0
	for _, item := range m.cfg.MutationPolicy {
		total += item.Weight
	}
	pick := m.rng.Float64() * total
	acc := 0.0
	for _, item := range m.cfg.MutationPolicy {
		acc += item.Weight
		if pick <= acc {
			return item.Operator
		}
	}
	return m.cfg.MutationPolicy[len(m.cfg.MutationPolicy)-1].Operator
}
