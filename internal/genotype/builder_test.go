package genotype

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/fitness"
	"arenaforge/internal/grid"
	"arenaforge/internal/stamp"
)

func newTestBuilder(t *testing.T, mutate func(*BuilderConfig)) *Builder {
	t.Helper()
	cfg := DefaultBuilderConfig()
	cfg.MaxTries = 3
	if mutate != nil {
		mutate(&cfg)
	}
	b, err := NewBuilder(cfg, fitness.MustEvaluator(fitness.DefaultConfig()))
	require.NoError(t, err)
	return b
}

func TestBuildProducesMirroredConnectedMap(t *testing.T) {
	b := newTestBuilder(t, nil)
	eval := fitness.MustEvaluator(fitness.DefaultConfig())
	for seed := int64(1); seed <= 3; seed++ {
		ind, report := b.Build(rand.New(rand.NewSource(seed)), "ind")
		require.NotNil(t, ind.Grid)
		assert.Equal(t, "ind", ind.ID)
		assert.Nil(t, ind.Fitness)
		assert.Equal(t, grid.Vertical, ind.Axis)
		assert.Equal(t, 60, ind.Grid.Rows())
		assert.GreaterOrEqual(t, report.Attempts, 1)
		assert.LessOrEqual(t, report.Attempts, 3)

		assert.False(t, report.Degraded, "seed %d", seed)
		assert.Equal(t, 10, ind.Grid.Count(grid.Spawn), "seed %d", seed)
		assert.NoError(t, CheckInvariants(ind.Grid, ind.Axis), "seed %d", seed)
		boxes := ind.Grid.Count(grid.Box)
		assert.GreaterOrEqual(t, boxes, 20, "seed %d", seed)
		assert.LessOrEqual(t, boxes, 35, "seed %d", seed)
		assert.True(t, report.Repair.Connected, "seed %d", seed)

		res := eval.Evaluate(ind.Grid, ind.Axis)
		assert.Equal(t, report.Fitness, res.Fitness)
		assert.Equal(t, report.Valid, res.Fitness > 0)
		if report.Valid {
			assert.Equal(t, 1, connectivity.Components(ind.Grid, connectivity.Traversable()).Count())
			assert.True(t, grid.ValidSize(ind.Grid.Rows(), ind.Grid.Cols()))
		}
	}
}

func TestBuildIsDeterministicForSeed(t *testing.T) {
	b := newTestBuilder(t, nil)
	a, ra := b.Build(rand.New(rand.NewSource(42)), "a")
	c, rc := b.Build(rand.New(rand.NewSource(42)), "c")
	assert.True(t, a.Grid.Equal(c.Grid))
	assert.Equal(t, ra, rc)
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}

func TestBuildHorizontalAxis(t *testing.T) {
	b := newTestBuilder(t, func(cfg *BuilderConfig) {
		cfg.Axis = grid.Horizontal
		cfg.Rows, cfg.Cols = 64, 64
	})
	ind, _ := b.Build(rand.New(rand.NewSource(5)), "h")
	assert.Equal(t, grid.Horizontal, ind.Axis)
	assert.Equal(t, 64, ind.Grid.Cols())
	assert.True(t, ind.Grid.IsSymmetric(grid.Horizontal))
	assert.Equal(t, 10, ind.Grid.Count(grid.Spawn))
}

func TestBuildReportsDegradedSpawnSampling(t *testing.T) {
	var logs bytes.Buffer
	b := newTestBuilder(t, func(cfg *BuilderConfig) {
		cfg.SpawnAttempts = 1
		cfg.MaxTries = 1
		cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	})
	// One sampling attempt can add at most one mirrored pair.
	ind, report := b.Build(rand.New(rand.NewSource(1)), "degraded")
	assert.True(t, report.Degraded)
	assert.Less(t, report.Spawns, 10)
	assert.Equal(t, report.Spawns, ind.Grid.Count(grid.Spawn))
	assert.False(t, report.Valid)
	assert.Contains(t, logs.String(), "spawn sampling exhausted")
	assert.Contains(t, logs.String(), "individual=degraded")
}

func TestBuilderConfigValidation(t *testing.T) {
	eval := fitness.MustEvaluator(fitness.DefaultConfig())
	_, err := NewBuilder(DefaultBuilderConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidBuilderConfig)

	cfg := DefaultBuilderConfig()
	cfg.Rows = 50
	_, err = NewBuilder(cfg, eval)
	assert.ErrorIs(t, err, ErrInvalidBuilderConfig)

	cfg = DefaultBuilderConfig()
	cfg.Structures.WallBlocks = Range{Min: 3, Max: 1}
	_, err = NewBuilder(cfg, eval)
	assert.ErrorIs(t, err, ErrInvalidBuilderConfig)

	cfg = DefaultBuilderConfig()
	cfg.MaxTries = 0
	_, err = NewBuilder(cfg, eval)
	assert.ErrorIs(t, err, ErrInvalidBuilderConfig)
}

func TestStampStructureEveryKind(t *testing.T) {
	for _, kind := range StructureKinds() {
		g := grid.New(60, 60)
		st := stamp.New(g, grid.Vertical, 1)
		rng := rand.New(rand.NewSource(7))
		require.True(t, StampStructure(st, g, grid.Vertical, kind, rng), string(kind))
		changed := g.Len() - g.Count(grid.Walkable)
		assert.Positive(t, changed, string(kind))
		for i, tile := range g.Tiles() {
			if tile != grid.Walkable {
				assert.True(t, g.InSourceHalf(g.PointAt(i), grid.Vertical), string(kind))
			}
		}
	}
	assert.False(t, StampStructure(stamp.New(grid.New(60, 60), grid.Vertical, 1), grid.New(60, 60), grid.Vertical, "unknown", rand.New(rand.NewSource(1))))
}

func TestRangeSample(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	r := Range{Min: 2, Max: 4}
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		v := r.Sample(rng)
		require.GreaterOrEqual(t, v, 2)
		require.LessOrEqual(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 5, Range{Min: 5, Max: 5}.Sample(rng))
	assert.Error(t, Range{Min: -1, Max: 2}.Validate("x"))
}

func TestIndividualCloneAndFingerprint(t *testing.T) {
	ind := &Individual{ID: "a", Grid: openArena(), Axis: grid.Vertical, ParentIDs: []string{"p"}}
	ind.SetFitness(3.5)

	clone := ind.Clone()
	clone.Grid.Set(0, 0, grid.Wall)
	clone.ParentIDs[0] = "q"
	*clone.Fitness = 1

	assert.Equal(t, grid.Walkable, ind.Grid.At(0, 0))
	assert.Equal(t, "p", ind.ParentIDs[0])
	assert.Equal(t, 3.5, ind.FitnessValue())
	assert.NotEqual(t, ind.Fingerprint(), clone.Fingerprint())
	assert.Equal(t, Fingerprint(openArena()), ind.Fingerprint())
	assert.Len(t, ind.Fingerprint(), 40)
	assert.Zero(t, (&Individual{}).FitnessValue())
}
