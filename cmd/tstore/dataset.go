package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tempstore/internal/core"
)

type datasetCreateFlags struct {
	parent      string
	imports     []string
	nonTemporal bool
}

func datasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Create, resolve and inspect datasets",
	}
	cmd.AddCommand(datasetCreateCmd())
	cmd.AddCommand(datasetShowCmd())
	cmd.AddCommand(datasetResolveCmd())
	return cmd
}

func datasetCreateCmd() *cobra.Command {
	flags := &datasetCreateFlags{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDatasetCreate(args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.parent, "parent", "", "Parent dataset id (hex); empty means the root dataset")
	cmd.Flags().StringSliceVar(&flags.imports, "import", nil, "Imported dataset id (hex), may be repeated")
	cmd.Flags().BoolVar(&flags.nonTemporal, "non-temporal", false, "Saves into this dataset always collapse to latest-by-key")
	return cmd
}

func runDatasetCreate(name string, flags *datasetCreateFlags) error {
	return withSession(func(ctx context.Context, session *core.Session) error {
		parent, err := parseOptionalID(flags.parent)
		if err != nil {
			return fmt.Errorf("--parent: %w", err)
		}
		imports, err := parseIDs(flags.imports)
		if err != nil {
			return fmt.Errorf("--import: %w", err)
		}

		id, err := session.Source.CreateDataSet(ctx, name, parent, imports, flags.nonTemporal)
		if err != nil {
			return err
		}
		fmt.Println(id.String())
		return nil
	})
}

func datasetResolveCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve a dataset name to its id within a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				parentID, err := parseOptionalID(parent)
				if err != nil {
					return fmt.Errorf("--parent: %w", err)
				}
				id, err := session.Source.DataSetOf(ctx, args[0], parentID)
				if err != nil {
					return err
				}
				fmt.Println(id.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent dataset id (hex); empty means the root dataset")
	return cmd
}

func datasetShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a dataset's name, imports and non-temporal flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				id, err := core.ParseTemporalId(args[0])
				if err != nil {
					return err
				}
				rec, err := session.Load(ctx, "DataSet", id)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no dataset with id %s", args[0])
				}
				ds, ok := rec.(*core.DataSet)
				if !ok {
					return fmt.Errorf("id %s is not a DataSet", args[0])
				}
				fmt.Printf("name: %s\n", ds.Name)
				fmt.Printf("non_temporal: %t\n", ds.NonTemporal)
				fmt.Printf("imports: %s\n", formatIDs(ds.Imports))
				return nil
			})
		},
	}
	return cmd
}

func parseOptionalID(s string) (core.TemporalId, error) {
	if s == "" {
		return core.EmptyTemporalId, nil
	}
	return core.ParseTemporalId(s)
}

func parseIDs(raw []string) ([]core.TemporalId, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]core.TemporalId, 0, len(raw))
	for _, s := range raw {
		id, err := core.ParseTemporalId(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatIDs(ids []core.TemporalId) string {
	if len(ids) == 0 {
		return "(none)"
	}
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id.String()
	}
	return out
}
