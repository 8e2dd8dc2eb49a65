// Package fitness scores arena maps. A map either fails one of an ordered
// list of hard constraints and scores zero, or it passes all of them and
// earns the weighted sum of its soft terms.
package fitness

import (
	"fmt"
	"sort"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/grid"
)

// Report is the outcome of one evaluation. Terms holds the unweighted soft
// term scores and is empty when a hard constraint failed.
type Report struct {
	Fitness          float64            `json:"fitness"`
	Passed           bool               `json:"passed"`
	FailedConstraint string             `json:"failed_constraint,omitempty"`
	Terms            map[string]float64 `json:"terms,omitempty"`
}

// Snapshot caches the per-map facts that several checks share.
type Snapshot struct {
	Grid   *grid.Grid
	Axis   grid.Axis
	Config Config
	Spawns []grid.Point
	Boxes  []grid.Point

	spawnDist [][]int
}

func NewSnapshot(g *grid.Grid, axis grid.Axis, cfg Config) *Snapshot {
	return &Snapshot{
		Grid:   g,
		Axis:   axis,
		Config: cfg,
		Spawns: g.Positions(grid.Spawn),
		Boxes:  g.Positions(grid.Box),
	}
}

// SpawnDistances returns one traversable distance field per spawn, computed
// on first use.
func (s *Snapshot) SpawnDistances() [][]int {
	if s.spawnDist == nil {
		s.spawnDist = make([][]int, len(s.Spawns))
		for i, sp := range s.Spawns {
			s.spawnDist[i] = connectivity.DistanceField(s.Grid, []grid.Point{sp}, connectivity.Traversable())
		}
	}
	return s.spawnDist
}

// Constraint is a named pass/fail rule.
type Constraint struct {
	Name  string
	Check func(*Snapshot) bool
}

// Term is a named soft score with its weight.
type Term struct {
	Name   string
	Weight float64
	Score  func(*Snapshot) float64
}

type Evaluator struct {
	cfg         Config
	constraints []Constraint
	terms       []Term
}

// NewEvaluator builds the default constraint chain followed by any extra
// constraints.
func NewEvaluator(cfg Config, extra ...Constraint) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	constraints := []Constraint{
		{Name: ConstraintSize, Check: checkSize},
		{Name: ConstraintSpawnCount, Check: checkSpawnCount},
		{Name: ConstraintBoxCount, Check: checkBoxCount},
		{Name: ConstraintClusterShape, Check: checkClusterShape},
		{Name: ConstraintSpawnBoxReach, Check: checkSpawnBoxReach},
		{Name: ConstraintConnectivity, Check: checkConnectivity},
		{Name: ConstraintCentralBoxes, Check: checkCentralBoxes},
		{Name: ConstraintSpawnBarriers, Check: checkSpawnBarriers},
	}
	for _, c := range extra {
		if c.Name == "" || c.Check == nil {
			return nil, fmt.Errorf("%w: extra constraint needs a name and a check", ErrInvalidConfig)
		}
		constraints = append(constraints, c)
	}
	w := cfg.Weights
	terms := []Term{
		{Name: TermSymmetry, Weight: w.Symmetry, Score: scoreSymmetry},
		{Name: TermObstacleDensity, Weight: w.ObstacleDensity, Score: scoreObstacleDensity},
		{Name: TermBushDensity, Weight: w.BushDensity, Score: scoreBushDensity},
		{Name: TermBoxProximity, Weight: w.BoxProximity, Score: scoreBoxProximity},
		{Name: TermPathingQuality, Weight: w.PathingQuality, Score: scorePathingQuality},
		{Name: TermSpawnLayout, Weight: w.SpawnLayout, Score: scoreSpawnLayout},
	}
	return &Evaluator{cfg: cfg, constraints: constraints, terms: terms}, nil
}

// MustEvaluator is NewEvaluator for configs known to be valid.
func MustEvaluator(cfg Config) *Evaluator {
	e, err := NewEvaluator(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Evaluator) Config() Config {
	return e.cfg
}

// ConstraintNames lists the hard constraints in evaluation order.
func (e *Evaluator) ConstraintNames() []string {
	out := make([]string, len(e.constraints))
	for i, c := range e.constraints {
		out[i] = c.Name
	}
	return out
}

func (e *Evaluator) Evaluate(g *grid.Grid, axis grid.Axis) Report {
	if g == nil {
		return Report{FailedConstraint: ConstraintSize}
	}
	snap := NewSnapshot(g, axis, e.cfg)
	for _, c := range e.constraints {
		if !c.Check(snap) {
			return Report{FailedConstraint: c.Name}
		}
	}
	report := Report{Passed: true, Terms: make(map[string]float64, len(e.terms))}
	for _, t := range e.terms {
		score := t.Score(snap)
		if score < 0 {
			score = 0
		}
		report.Terms[t.Name] = score
		report.Fitness += t.Weight * score
	}
	if report.Fitness < 0 {
		report.Fitness = 0
	}
	return report
}

func (e *Evaluator) Score(g *grid.Grid, axis grid.Axis) float64 {
	return e.Evaluate(g, axis).Fitness
}

// TermNames returns the soft term names sorted for stable output.
func (r Report) TermNames() []string {
	names := make([]string, 0, len(r.Terms))
	for name := range r.Terms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
