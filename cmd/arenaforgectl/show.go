package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"arenaforge/internal/grid"
	"arenaforge/pkg/arenaforge"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the best stored map of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, root, func(client *arenaforge.Client) error {
				record, g, err := client.BestMap(cmd.Context(), opts.query())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "id=%s generation=%d fitness=%.6f passed=%t axis=%s fingerprint=%s\n",
					record.IndividualID, record.Generation, record.Fitness, record.Passed, record.Axis, record.Fingerprint)
				if record.FailedConstraint != "" {
					fmt.Fprintf(out, "failed_constraint=%s\n", record.FailedConstraint)
				}
				return writeGrid(out, g)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

// writeGrid prints the tile-id matrix, one row per line, followed by the
// id table.
func writeGrid(w io.Writer, g *grid.Grid) error {
	bw := bufio.NewWriter(w)
	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			if x > 0 {
				_ = bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%d", g.At(x, y).ID())
		}
		_ = bw.WriteByte('\n')
	}

	legend := grid.Legend()
	names := make([]string, 0, len(legend))
	for name := range legend {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return legend[names[i]] < legend[names[j]] })
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%d=%s", legend[name], name)
	}
	fmt.Fprintf(bw, "legend %s\n", strings.Join(parts, " "))
	return bw.Flush()
}
