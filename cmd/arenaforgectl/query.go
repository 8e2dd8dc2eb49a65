package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"arenaforge/pkg/arenaforge"
)

type queryOptions struct {
	runID  string
	latest bool
	limit  int
}

func (o *queryOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.runID, "run-id", "", "run id")
	flags.BoolVar(&o.latest, "latest", false, "use the most recent run")
	flags.IntVar(&o.limit, "limit", 0, "max rows, 0 for all")
}

func (o *queryOptions) query() arenaforge.RunQuery {
	return arenaforge.RunQuery{RunID: o.runID, Latest: o.latest, Limit: o.limit}
}

// withClient opens a quiet client for read-only commands.
func withClient(cmd *cobra.Command, root *rootOptions, fn func(*arenaforge.Client) error) error {
	logger, err := newLogger(cmd.ErrOrStderr(), root.logLevel)
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
	return fn(client)
}

func newRunsCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, root, func(client *arenaforge.Client) error {
				runs, err := client.Runs(cmd.Context(), arenaforge.RunsRequest{Limit: limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "no runs found")
					return nil
				}
				for _, r := range runs {
					fmt.Fprintf(out, "run_id=%s created_at=%s seed=%d pop=%d gens=%d/%d size=%dx%d axis=%s final_best_fitness=%.6f stop=%s\n",
						r.ID, r.CreatedAt.Format("2006-01-02T15:04:05Z"), r.Seed, r.PopulationSize,
						r.GenerationsRun, r.Generations, r.Rows, r.Cols, r.Axis, r.BestFitness, r.StopReason)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	return cmd
}

func newFitnessCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Print the best fitness of each generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, root, func(client *arenaforge.Client) error {
				history, err := client.FitnessHistory(cmd.Context(), opts.query())
				if err != nil {
					return err
				}
				for i, best := range history {
					fmt.Fprintf(cmd.OutOrStdout(), "generation=%d best_fitness=%.6f\n", i, best)
				}
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newDiagnosticsCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Print per-generation population statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, root, func(client *arenaforge.Client) error {
				diagnostics, err := client.Diagnostics(cmd.Context(), opts.query())
				if err != nil {
					return err
				}
				for _, d := range diagnostics {
					fmt.Fprintf(cmd.OutOrStdout(), "generation=%d best=%.6f mean=%.6f min=%.6f valid=%d fingerprints=%d elapsed_ms=%d\n",
						d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness, d.ValidCount, d.FingerprintDiversity, d.ElapsedMillis)
				}
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newLineageCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Print how each individual was produced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, root, func(client *arenaforge.Client) error {
				lineage, err := client.Lineage(cmd.Context(), opts.query())
				if err != nil {
					return err
				}
				for _, r := range lineage {
					parents := strings.Join(r.ParentIDs, ",")
					if parents == "" {
						parents = "-"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "gen=%d id=%s parents=%s op=%s fingerprint=%s\n",
						r.Generation, r.IndividualID, parents, r.Operation, r.Fingerprint)
				}
				return nil
			})
		},
	}
	opts.bind(cmd)
	return cmd
}
