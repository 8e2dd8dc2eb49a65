package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaforge/internal/grid"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arenaforge.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.Rows)
	assert.Equal(t, grid.Vertical, cfg.Axis)
	assert.InDelta(t, 1.0, cfg.Mutation.Weights["add_structure"]+cfg.Mutation.Weights["remove_obstacle"]+
		cfg.Mutation.Weights["shift_region"]+cfg.Mutation.Weights["add_bush"], 1e-9)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
seed = 42
population_size = 12
rows = 64
cols = 64
axis = "horizontal"
time_budget = "90s"
log_level = "debug"

[selection]
selector = "elite"
elite_count = 2

[mutation.weights]
swap_tiles = 1.0

[structures.wall_blocks]
min = 2
max = 4

[fitness]
center_radius = 10.0

[store]
backend = "sqlite"
path = "runs.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 12, cfg.PopulationSize)
	assert.Equal(t, grid.Horizontal, cfg.Axis)
	assert.Equal(t, 90*time.Second, cfg.TimeBudget)
	assert.Equal(t, "elite", cfg.Selection.Selector)
	assert.Equal(t, 3, cfg.Selection.TournamentSize)
	assert.Equal(t, map[string]float64{"swap_tiles": 1}, cfg.Mutation.Weights)
	assert.Equal(t, 2, cfg.Structures.WallBlocks.Min)
	assert.Equal(t, 10.0, cfg.Fitness.CenterRadius)
	assert.Equal(t, 10, cfg.Fitness.SpawnCount)
	assert.Equal(t, "sqlite", cfg.Store.Backend)

	builder := cfg.BuilderConfig(nil)
	assert.Equal(t, 64, builder.Rows)
	assert.Equal(t, grid.Horizontal, builder.Axis)
	assert.Equal(t, 4, builder.Structures.WallBlocks.Max)
}

func TestLoadKeepsDefaultWeightsWhenUnset(t *testing.T) {
	cfg, err := Load(writeConfig(t, "generations = 3\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Mutation.Weights, cfg.Mutation.Weights)
	assert.Equal(t, 3, cfg.Generations)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "population = 10\n[selection]\nsize = 2\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "population")
	assert.Contains(t, err.Error(), "selection.size")
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, `axis = "diagonal"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "rows = 50\ncols = 50\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"population":    func(c *Config) { c.PopulationSize = 0 },
		"generations":   func(c *Config) { c.Generations = 0 },
		"workers":       func(c *Config) { c.Workers = -1 },
		"time budget":   func(c *Config) { c.TimeBudget = -time.Second },
		"elite count":   func(c *Config) { c.Selection.EliteCount = c.PopulationSize + 1 },
		"mutation rate": func(c *Config) { c.Mutation.Rate = 1.5 },
		"weight":        func(c *Config) { c.Mutation.Weights = map[string]float64{"add_bush": -1} },
		"log level":     func(c *Config) { c.LogLevel = "loud" },
		"fitness":       func(c *Config) { c.Fitness.SpawnCount = 0 },
		"clearance":     func(c *Config) { c.Clearance = -1 },
		"top maps":      func(c *Config) { c.TopMaps = -1 },
	}
	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			edit(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())
}
