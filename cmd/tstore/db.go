package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tempstore/internal/config"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database-level operations",
	}
	cmd.AddCommand(dbDropCmd())
	return cmd
}

func dbDropCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every collection in the configured database",
		Long: `Drop refuses to run against a PROD or UAT database, and refuses
whenever the configured data source is read-only, regardless of --yes
(§6.4).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop without --yes")
			}
			return runDBDrop()
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the drop")
	return cmd
}

func runDBDrop() error {
	cfg, err := config.NewParser().ParseFile(configPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", configPath, err)
	}
	ctx := context.Background()
	if err := cfg.DropDatabase(ctx); err != nil {
		return err
	}
	fmt.Printf("dropped database %s\n", cfg.DbName)
	return nil
}
