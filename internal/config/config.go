// Package config loads run settings from TOML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"arenaforge/internal/fitness"
	"arenaforge/internal/genotype"
	"arenaforge/internal/grid"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Seed           int64     `toml:"seed"`
	PopulationSize int       `toml:"population_size"`
	Generations    int       `toml:"generations"`
	Rows           int       `toml:"rows"`
	Cols           int       `toml:"cols"`
	Axis           grid.Axis `toml:"axis"`
	Clearance      int       `toml:"clearance"`
	MaxTries       int       `toml:"max_tries"`
	Workers        int       `toml:"workers"`
	// TimeBudget caps wall-clock time, written as "90s" or "5m". Zero means
	// generations alone decide.
	TimeBudget time.Duration `toml:"time_budget"`

	Selection  Selection                `toml:"selection"`
	Mutation   Mutation                 `toml:"mutation"`
	Structures genotype.StructureRanges `toml:"structures"`
	Fitness    fitness.Config           `toml:"fitness"`
	Store      Store                    `toml:"store"`

	LogLevel string `toml:"log_level"`
	// TopMaps is how many ranked maps of the final population are persisted.
	TopMaps int `toml:"top_maps"`
}

type Selection struct {
	Selector       string `toml:"selector"`
	TournamentSize int    `toml:"tournament_size"`
	EliteCount     int    `toml:"elite_count"`
	Postprocessor  string `toml:"postprocessor"`
}

type Mutation struct {
	Rate    float64            `toml:"rate"`
	Weights map[string]float64 `toml:"weights"`
}

type Store struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

func Default() Config {
	builder := genotype.DefaultBuilderConfig()
	return Config{
		Seed:           1,
		PopulationSize: 20,
		Generations:    10,
		Rows:           builder.Rows,
		Cols:           builder.Cols,
		Axis:           builder.Axis,
		Clearance:      builder.Clearance,
		MaxTries:       builder.MaxTries,
		Workers:        4,
		Selection: Selection{
			Selector:       "tournament",
			TournamentSize: 3,
			Postprocessor:  "none",
		},
		Mutation: Mutation{
			Rate: 0.9,
			Weights: map[string]float64{
				"add_structure":   0.35,
				"remove_obstacle": 0.25,
				"shift_region":    0.20,
				"add_bush":        0.20,
			},
		},
		Structures: builder.Structures,
		Fitness:    fitness.DefaultConfig(),
		Store:      Store{Backend: "memory"},
		LogLevel:   "info",
		TopMaps:    3,
	}
}

// Load decodes path over Default. Keys the file sets that Config does not
// know are rejected. A [mutation.weights] table replaces the default policy
// rather than merging with it.
func Load(path string) (Config, error) {
	cfg := Default()
	defaultWeights := cfg.Mutation.Weights
	cfg.Mutation.Weights = nil
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Mutation.Weights == nil {
		cfg.Mutation.Weights = defaultWeights
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	case c.Generations <= 0:
		return fmt.Errorf("%w: generations must be > 0", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	case c.TimeBudget < 0:
		return fmt.Errorf("%w: time budget must be >= 0", ErrInvalidConfig)
	case c.Selection.EliteCount < 0 || c.Selection.EliteCount > c.PopulationSize:
		return fmt.Errorf("%w: elite count must be in [0,%d]", ErrInvalidConfig, c.PopulationSize)
	case c.Selection.TournamentSize < 0:
		return fmt.Errorf("%w: tournament size must be >= 0", ErrInvalidConfig)
	case c.Mutation.Rate > 1:
		return fmt.Errorf("%w: mutation rate must be <= 1", ErrInvalidConfig)
	case c.TopMaps < 0:
		return fmt.Errorf("%w: top maps must be >= 0", ErrInvalidConfig)
	}
	for name, weight := range c.Mutation.Weights {
		if weight < 0 {
			return fmt.Errorf("%w: mutation weight %s must be >= 0", ErrInvalidConfig, name)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Fitness.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.BuilderConfig(nil).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// BuilderConfig maps the map-shape settings onto the builder defaults.
func (c Config) BuilderConfig(logger *slog.Logger) genotype.BuilderConfig {
	b := genotype.DefaultBuilderConfig()
	b.Rows = c.Rows
	b.Cols = c.Cols
	b.Axis = c.Axis
	b.Clearance = c.Clearance
	b.MaxTries = c.MaxTries
	b.Structures = c.Structures
	b.Logger = logger
	return b
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
