// Package main is the tstore CLI: a cobra command tree over the library,
// in the same root-command-plus-subcommands-plus-flags-struct shape as
// the teacher's cmd/smf, operating a core.Session instead of a SQL
// schema diff.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tempstore/internal/config"
	"tempstore/internal/core"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tstore",
		Short: "Temporal hierarchical record store CLI",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tstore.toml", "Path to the tstore TOML configuration file")

	rootCmd.AddCommand(datasetCmd())
	rootCmd.AddCommand(docCmd())
	rootCmd.AddCommand(dbCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configPath is bound by the root command's persistent --config flag;
// every subcommand reads it through withSession instead of re-declaring
// its own copy.
var configPath string

// withSession loads the configuration at configPath, connects, runs fn
// against the resulting Session, and closes the connection afterwards
// regardless of fn's outcome.
func withSession(fn func(ctx context.Context, session *core.Session) error) error {
	cfg, err := config.NewParser().ParseFile(configPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", configPath, err)
	}

	ctx := context.Background()
	session, closeFn, err := cfg.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer func() {
		_ = closeFn(ctx)
	}()

	return fn(ctx, session)
}
