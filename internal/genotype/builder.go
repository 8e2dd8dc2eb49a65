package genotype

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"arenaforge/internal/fitness"
	"arenaforge/internal/grid"
	"arenaforge/internal/stamp"
)

var ErrInvalidBuilderConfig = errors.New("invalid builder config")

type BuilderConfig struct {
	Rows       int
	Cols       int
	Axis       grid.Axis
	Clearance  int
	Structures StructureRanges
	// MaxTries bounds full restarts when an attempt scores zero.
	MaxTries int
	// SpawnAttempts bounds random spawn sampling per attempt.
	SpawnAttempts int
	// CornerInset is the distance of the four fixed spawns from the edges.
	CornerInset     int
	SupplyBoxes     Range
	CenterBoxes     Range
	CenterBoxRadius int
	Logger          *slog.Logger
}

func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Rows:            60,
		Cols:            60,
		Axis:            grid.Vertical,
		Clearance:       1,
		Structures:      DefaultStructureRanges(),
		MaxTries:        20,
		SpawnAttempts:   500,
		CornerInset:     5,
		SupplyBoxes:     Range{Min: 1, Max: 2},
		CenterBoxes:     Range{Min: 4, Max: 6},
		CenterBoxRadius: 6,
	}
}

func (c BuilderConfig) Validate() error {
	switch {
	case !grid.ValidSize(c.Rows, c.Cols):
		return fmt.Errorf("%w: unsupported size %dx%d", ErrInvalidBuilderConfig, c.Rows, c.Cols)
	case c.Clearance < 0:
		return fmt.Errorf("%w: clearance must be >= 0", ErrInvalidBuilderConfig)
	case c.MaxTries <= 0:
		return fmt.Errorf("%w: max tries must be > 0", ErrInvalidBuilderConfig)
	case c.SpawnAttempts <= 0:
		return fmt.Errorf("%w: spawn attempts must be > 0", ErrInvalidBuilderConfig)
	case c.CornerInset < 0 || 2*c.CornerInset >= c.Rows || 2*c.CornerInset >= c.Cols:
		return fmt.Errorf("%w: corner inset %d", ErrInvalidBuilderConfig, c.CornerInset)
	case c.CenterBoxRadius < 0:
		return fmt.Errorf("%w: center box radius must be >= 0", ErrInvalidBuilderConfig)
	}
	if err := c.Structures.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBuilderConfig, err)
	}
	if err := c.SupplyBoxes.Validate("supply boxes"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBuilderConfig, err)
	}
	if err := c.CenterBoxes.Validate("center boxes"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBuilderConfig, err)
	}
	return nil
}

// BuildReport describes how an individual came to be.
type BuildReport struct {
	Attempts         int          `json:"attempts"`
	Valid            bool         `json:"valid"`
	Degraded         bool         `json:"degraded"`
	Spawns           int          `json:"spawns"`
	Barriers         int          `json:"barriers"`
	Boxes            int          `json:"boxes"`
	Fitness          float64      `json:"fitness"`
	FailedConstraint string       `json:"failed_constraint,omitempty"`
	Repair           RepairReport `json:"repair"`
}

type Builder struct {
	cfg       BuilderConfig
	evaluator *fitness.Evaluator
	logger    *slog.Logger
}

func NewBuilder(cfg BuilderConfig, evaluator *fitness.Evaluator) (*Builder, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", ErrInvalidBuilderConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{cfg: cfg, evaluator: evaluator, logger: logger}, nil
}

func (b *Builder) Config() BuilderConfig {
	return b.cfg
}

// Build runs up to MaxTries attempts and returns the first one that scores
// above zero, or the last attempt when none does.
func (b *Builder) Build(rng *rand.Rand, id string) (*Individual, BuildReport) {
	var (
		g      *grid.Grid
		report BuildReport
	)
	for attempt := 1; attempt <= b.cfg.MaxTries; attempt++ {
		g, report = b.attempt(rng)
		report.Attempts = attempt
		if report.Valid {
			break
		}
	}
	if report.Degraded {
		b.logger.Warn("spawn sampling exhausted",
			"individual", id,
			"spawns", report.Spawns,
			"want", b.evaluator.Config().SpawnCount,
		)
	}
	if !report.Valid {
		b.logger.Warn("builder returned best-effort map",
			"individual", id,
			"attempts", report.Attempts,
			"failed_constraint", report.FailedConstraint,
		)
	}
	ind := &Individual{
		ID:        id,
		Grid:      g,
		Axis:      b.cfg.Axis,
		Clearance: b.cfg.Clearance,
		Operation: "build",
	}
	return ind, report
}

func (b *Builder) attempt(rng *rand.Rand) (*grid.Grid, BuildReport) {
	var report BuildReport
	fcfg := b.evaluator.Config()
	axis := b.cfg.Axis
	g := grid.New(b.cfg.Rows, b.cfg.Cols)

	report.Spawns = b.placeSpawns(g, rng, fcfg.SpawnCount)
	report.Degraded = report.Spawns < fcfg.SpawnCount

	for _, sp := range g.Positions(grid.Spawn) {
		if g.InSourceHalf(sp, axis) {
			PlaceSupplyBoxes(g, axis, sp, b.cfg.SupplyBoxes.Sample(rng), rng)
		}
	}
	PlaceCenterBoxes(g, axis, b.cfg.CenterBoxes.Sample(rng), b.cfg.CenterBoxRadius, rng)

	// Barriers go down before free structures so the clearance rule keeps
	// structures from merging into them.
	report.Barriers = StampBarriers(g, axis, fcfg, rng)

	st := stamp.New(g, axis, b.cfg.Clearance)
	for _, kind := range StructureKinds() {
		n := b.cfg.Structures.For(kind).Sample(rng)
		for i := 0; i < n; i++ {
			StampStructure(st, g, axis, kind, rng)
		}
	}

	g.ApplySymmetry(axis)
	report.Boxes = BalanceBoxes(g, axis, fcfg.BoxMin, fcfg.BoxMax, rng)
	report.Repair = RepairConnectivity(g, axis, b.cfg.Clearance)

	eval := b.evaluator.Evaluate(g, axis)
	report.Fitness = eval.Fitness
	report.Valid = eval.Fitness > 0
	report.FailedConstraint = eval.FailedConstraint
	return g, report
}

// placeSpawns drops the four corner spawns, then samples source-half points
// at least rows/5 (Manhattan) from every placed spawn and from their own
// mirror, adding each with its mirror. It returns the spawn count reached.
func (b *Builder) placeSpawns(g *grid.Grid, rng *rand.Rand, want int) int {
	inset := b.cfg.CornerInset
	corners := []grid.Point{
		{X: inset, Y: inset},
		{X: g.Cols() - 1 - inset, Y: inset},
		{X: inset, Y: g.Rows() - 1 - inset},
		{X: g.Cols() - 1 - inset, Y: g.Rows() - 1 - inset},
	}
	placed := make([]grid.Point, 0, want)
	for _, c := range corners {
		if len(placed) >= want {
			break
		}
		g.Put(c, grid.Spawn)
		placed = append(placed, c)
	}

	sep := g.Rows() / 5
	maxX, maxY := g.SourceBounds(b.cfg.Axis)
	margin := 2
	for attempt := 0; len(placed)+2 <= want && attempt < b.cfg.SpawnAttempts; attempt++ {
		p := grid.Point{
			X: margin + rng.Intn(max(1, maxX-margin)),
			Y: margin + rng.Intn(max(1, maxY-margin)),
		}
		if p.X >= g.Cols()-margin || p.Y >= g.Rows()-margin || !g.InSourceHalf(p, b.cfg.Axis) {
			continue
		}
		m := g.Mirror(p, b.cfg.Axis)
		if !g.Contains(m) || m == p || grid.Manhattan(p, m) < sep {
			continue
		}
		if tooClose(p, placed, sep) || tooClose(m, placed, sep) {
			continue
		}
		g.Put(p, grid.Spawn)
		g.Put(m, grid.Spawn)
		placed = append(placed, p, m)
	}
	return len(placed)
}

func tooClose(p grid.Point, placed []grid.Point, sep int) bool {
	for _, q := range placed {
		if grid.Manhattan(p, q) < sep {
			return true
		}
	}
	return false
}
