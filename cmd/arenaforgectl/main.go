package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arenaforge/pkg/arenaforge"
)

type rootOptions struct {
	storeKind string
	dbPath    string
	logLevel  string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "arenaforgectl",
		Short:         "Evolve symmetric arena maps and inspect stored runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.storeKind, "store", "memory", "store backend: memory|sqlite")
	flags.StringVar(&opts.dbPath, "db-path", "arenaforge.db", "sqlite database path")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error (defaults to the config file's)")

	root.AddCommand(
		newRunCmd(opts),
		newRunsCmd(opts),
		newFitnessCmd(opts),
		newDiagnosticsCmd(opts),
		newLineageCmd(opts),
		newShowCmd(opts),
	)
	return root
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openClient builds a client on the selected store; callers close it.
func openClient(cmd *cobra.Command, opts *rootOptions, logger *slog.Logger) (*arenaforge.Client, error) {
	client, err := arenaforge.New(arenaforge.Options{
		StoreKind: opts.storeKind,
		DBPath:    opts.dbPath,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(cmd.Context()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
