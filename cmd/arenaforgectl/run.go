package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"arenaforge/internal/config"
	"arenaforge/internal/evo"
	"arenaforge/internal/grid"
	"arenaforge/pkg/arenaforge"
)

type runOptions struct {
	configPath string
	seed       int64
	population int
	gens       int
	workers    int
	axis       string
	timeBudget time.Duration
	selector   string
	showMap    bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a population of maps and store the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadRunConfig(cmd, opts)
			if err != nil {
				return err
			}
			level := root.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			logger, err := newLogger(cmd.ErrOrStderr(), level)
			if err != nil {
				return err
			}
			client, err := openClient(cmd, root, logger)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			out := cmd.OutOrStdout()
			summary, err := client.Run(cmd.Context(), arenaforge.RunRequest{
				Config: cfg,
				OnGeneration: func(d evo.GenerationDiagnostics) {
					fmt.Fprintf(out, "generation=%d best_fitness=%.6f mean=%.6f valid=%d fingerprints=%d\n",
						d.Generation, d.BestFitness, d.MeanFitness, d.ValidCount, d.FingerprintDiversity)
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "run completed run_id=%s pop=%d gens=%d seed=%d stop=%s\n",
				summary.RunID, cfg.PopulationSize, summary.GenerationsRun, cfg.Seed, summary.StopReason)
			fmt.Fprintf(out, "final_best_fitness=%.6f best_id=%s\n", summary.BestFitness, summary.BestIndividualID)
			if opts.showMap {
				g, err := grid.FromIDs(summary.Best.Tiles)
				if err != nil {
					return err
				}
				return writeGrid(out, g)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "TOML config file")
	flags.Int64Var(&opts.seed, "seed", 1, "random seed")
	flags.IntVar(&opts.population, "pop", 20, "population size")
	flags.IntVar(&opts.gens, "gens", 10, "generations")
	flags.IntVar(&opts.workers, "workers", 4, "parallel workers")
	flags.StringVar(&opts.axis, "axis", "vertical", "symmetry axis: vertical|horizontal")
	flags.DurationVar(&opts.timeBudget, "time-budget", 0, "wall-clock budget, 0 for none")
	flags.StringVar(&opts.selector, "selection", "tournament", "parent selection: tournament|elite")
	flags.BoolVar(&opts.showMap, "show", false, "print the best map's tile ids when done")
	return cmd
}

// loadRunConfig reads the config file, if any, then applies the flags the
// user set explicitly.
func loadRunConfig(cmd *cobra.Command, opts *runOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("pop") {
		cfg.PopulationSize = opts.population
	}
	if flags.Changed("gens") {
		cfg.Generations = opts.gens
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("axis") {
		axis, err := grid.ParseAxis(opts.axis)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Axis = axis
	}
	if flags.Changed("time-budget") {
		cfg.TimeBudget = opts.timeBudget
	}
	if flags.Changed("selection") {
		cfg.Selection.Selector = opts.selector
	}
	return cfg, cfg.Validate()
}
