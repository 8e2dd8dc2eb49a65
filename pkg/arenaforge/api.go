// Package arenaforge is the public entry point: it runs map evolution and
// reads back what earlier runs stored.
package arenaforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"arenaforge/internal/config"
	"arenaforge/internal/evo"
	"arenaforge/internal/fitness"
	"arenaforge/internal/genotype"
	"arenaforge/internal/grid"
	"arenaforge/internal/model"
	"arenaforge/internal/storage"
)

const defaultDBPath = "arenaforge.db"

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

type RunRequest struct {
	Config config.Config
	// OnGeneration, when set, receives each generation's diagnostics as the
	// run progresses.
	OnGeneration func(evo.GenerationDiagnostics)
}

type RunSummary struct {
	RunID            string
	BestByGeneration []float64
	BestFitness      float64
	BestIndividualID string
	GenerationsRun   int
	StopReason       string
	Best             model.MapRecord
}

type RunsRequest struct {
	Limit int
}

// RunQuery selects a stored run either by id or as the most recent one.
type RunQuery struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, logger: logger, now: time.Now}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Run evolves a population with req.Config and stores the run record, its
// history, lineage and the top ranked maps under a fresh run id.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	if err := evo.RegisterBuiltinOperators(); err != nil {
		return RunSummary{}, err
	}

	monitor, err := c.newMonitor(cfg, req.OnGeneration)
	if err != nil {
		return RunSummary{}, err
	}

	started := c.now().UTC()
	runID := ulid.Make().String()
	logger := c.logger.With("run_id", runID)
	logger.Info("run started", "seed", cfg.Seed, "population", cfg.PopulationSize, "generations", cfg.Generations)

	result, err := monitor.Run(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}
	elapsed := c.now().Sub(started)

	top := topMaps(result.FinalPopulation, cfg.TopMaps)
	best := mapRecord(1, result.Best)
	run := model.RunRecord{
		VersionedRecord:  storage.CurrentVersion(),
		ID:               runID,
		CreatedAt:        started,
		Seed:             cfg.Seed,
		PopulationSize:   cfg.PopulationSize,
		Generations:      cfg.Generations,
		GenerationsRun:   len(result.BestByGeneration),
		Rows:             cfg.Rows,
		Cols:             cfg.Cols,
		Axis:             cfg.Axis.String(),
		Selector:         cfg.Selection.Selector,
		Postprocessor:    cfg.Selection.Postprocessor,
		BestIndividualID: best.IndividualID,
		BestFitness:      best.Fitness,
		StopReason:       result.StopReason,
		ElapsedMillis:    elapsed.Milliseconds(),
	}

	if err := c.persist(ctx, run, result, top); err != nil {
		return RunSummary{}, fmt.Errorf("persist run %s: %w", runID, err)
	}
	logger.Info("run finished",
		"best_fitness", best.Fitness,
		"best_id", best.IndividualID,
		"stop_reason", result.StopReason,
		"elapsed", elapsed,
	)

	return RunSummary{
		RunID:            runID,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		BestFitness:      best.Fitness,
		BestIndividualID: best.IndividualID,
		GenerationsRun:   run.GenerationsRun,
		StopReason:       result.StopReason,
		Best:             best,
	}, nil
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunRecord, 0, min(len(runs), req.Limit))
	for i := len(runs) - 1; i >= 0 && len(out) < req.Limit; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req RunQuery) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, req, "fitness history")
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	return limit(history, req.Limit), nil
}

func (c *Client) Diagnostics(ctx context.Context, req RunQuery) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(ctx, req, "diagnostics")
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	return limit(diagnostics, req.Limit), nil
}

func (c *Client) Lineage(ctx context.Context, req RunQuery) ([]model.LineageRecord, error) {
	runID, err := c.resolveRunID(ctx, req, "lineage")
	if err != nil {
		return nil, err
	}
	lineage, ok, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", runID)
	}
	return limit(lineage, req.Limit), nil
}

func (c *Client) TopMaps(ctx context.Context, req RunQuery) ([]model.MapRecord, error) {
	runID, err := c.resolveRunID(ctx, req, "top maps")
	if err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopMaps(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top maps not found for run id: %s", runID)
	}
	return limit(top, req.Limit), nil
}

// BestMap returns the highest ranked stored map of a run as a grid.
func (c *Client) BestMap(ctx context.Context, req RunQuery) (model.MapRecord, *grid.Grid, error) {
	req.Limit = 1
	top, err := c.TopMaps(ctx, req)
	if err != nil {
		return model.MapRecord{}, nil, err
	}
	if len(top) == 0 {
		return model.MapRecord{}, nil, fmt.Errorf("no stored maps for run")
	}
	g, err := grid.FromIDs(top[0].Tiles)
	if err != nil {
		return model.MapRecord{}, nil, err
	}
	return top[0], g, nil
}

func (c *Client) newMonitor(cfg config.Config, onGeneration func(evo.GenerationDiagnostics)) (*evo.PopulationMonitor, error) {
	evaluator, err := fitness.NewEvaluator(cfg.Fitness)
	if err != nil {
		return nil, err
	}
	builder, err := genotype.NewBuilder(cfg.BuilderConfig(c.logger), evaluator)
	if err != nil {
		return nil, err
	}
	var policy []evo.WeightedMutation
	if len(cfg.Mutation.Weights) > 0 {
		policy, err = evo.PolicyFromWeights(cfg.Mutation.Weights)
		if err != nil {
			return nil, err
		}
	}
	selector, err := evo.ResolveSelector(cfg.Selection.Selector, cfg.Selection.TournamentSize)
	if err != nil {
		return nil, err
	}
	postprocessor, err := evo.ResolvePostprocessor(cfg.Selection.Postprocessor)
	if err != nil {
		return nil, err
	}

	monitorCfg := evo.MonitorConfig{
		Builder:        builder,
		Evaluator:      evaluator,
		MutationPolicy: policy,
		Selector:       selector,
		Postprocessor:  postprocessor,
		PopulationSize: cfg.PopulationSize,
		EliteCount:     cfg.Selection.EliteCount,
		MutationRate:   cfg.Mutation.Rate,
		Generations:    cfg.Generations,
		TimeBudget:     cfg.TimeBudget,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
		Logger:         c.logger,
	}
	if onGeneration != nil {
		monitorCfg.OnGeneration = func(d evo.GenerationDiagnostics, _ evo.ScoredIndividual) {
			onGeneration(d)
		}
	}
	return evo.NewPopulationMonitor(monitorCfg)
}

func (c *Client) persist(ctx context.Context, run model.RunRecord, result evo.RunResult, top []model.MapRecord) error {
	if err := c.store.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := c.store.SaveFitnessHistory(ctx, run.ID, result.BestByGeneration); err != nil {
		return err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, run.ID, diagnosticsRecords(result.GenerationDiagnostics)); err != nil {
		return err
	}
	if err := c.store.SaveLineage(ctx, run.ID, lineageRecords(result.Lineage)); err != nil {
		return err
	}
	return c.store.SaveTopMaps(ctx, run.ID, top)
}

func (c *Client) resolveRunID(ctx context.Context, req RunQuery, what string) (string, error) {
	if req.RunID != "" && req.Latest {
		return "", errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if err := c.store.Init(ctx); err != nil {
		return "", err
	}
	if req.Latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", fmt.Errorf("%w: no runs available", ErrRunNotFound)
		}
		return runs[len(runs)-1].ID, nil
	}
	if req.RunID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	_, ok, err := c.store.GetRun(ctx, req.RunID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, req.RunID)
	}
	return req.RunID, nil
}

func topMaps(ranked []evo.ScoredIndividual, n int) []model.MapRecord {
	n = min(n, len(ranked))
	out := make([]model.MapRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mapRecord(i+1, ranked[i]))
	}
	return out
}

func mapRecord(rank int, scored evo.ScoredIndividual) model.MapRecord {
	ind := scored.Individual
	if ind == nil || ind.Grid == nil {
		return model.MapRecord{VersionedRecord: storage.CurrentVersion(), Rank: rank}
	}
	return model.MapRecord{
		VersionedRecord:  storage.CurrentVersion(),
		Rank:             rank,
		IndividualID:     ind.ID,
		Generation:       ind.Generation,
		Fitness:          scored.Fitness,
		Passed:           scored.Report.Passed,
		FailedConstraint: scored.Report.FailedConstraint,
		Terms:            scored.Report.Terms,
		Axis:             ind.Axis.String(),
		Fingerprint:      ind.Fingerprint(),
		Tiles:            ind.Grid.IDs(),
	}
}

func diagnosticsRecords(in []evo.GenerationDiagnostics) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, len(in))
	for i, d := range in {
		out[i] = model.GenerationDiagnostics(d)
	}
	return out
}

func lineageRecords(in []evo.LineageRecord) []model.LineageRecord {
	out := make([]model.LineageRecord, len(in))
	for i, r := range in {
		out[i] = model.LineageRecord{
			VersionedRecord: storage.CurrentVersion(),
			IndividualID:    r.IndividualID,
			ParentIDs:       r.ParentIDs,
			Generation:      r.Generation,
			Operation:       r.Operation,
			Fingerprint:     r.Fingerprint,
		}
	}
	return out
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
