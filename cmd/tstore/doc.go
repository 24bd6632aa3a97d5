package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tempstore/internal/core"
)

func docCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Point lookup, write, delete and range-query documents",
	}
	cmd.AddCommand(docGetCmd())
	cmd.AddCommand(docGetIDCmd())
	cmd.AddCommand(docPutCmd())
	cmd.AddCommand(docDeleteCmd())
	cmd.AddCommand(docQueryCmd())
	return cmd
}

func docGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Load the latest visible document for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				rec, err := session.LoadByKey(ctx, "Document", &documentKey{Key: args[0]})
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no document with key %q", args[0])
				}
				printDocument(rec.(*document))
				return nil
			})
		},
	}
}

func docGetIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-id <id>",
		Short: "Load a document by its exact id, ignoring dataset visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				id, err := core.ParseTemporalId(args[0])
				if err != nil {
					return err
				}
				rec, err := session.Load(ctx, "Document", id)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no document with id %s", args[0])
				}
				printDocument(rec.(*document))
				return nil
			})
		},
	}
}

func docPutCmd() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "put <key>",
		Short: "Save a document under a key in the default dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				values, err := parseFields(fields)
				if err != nil {
					return err
				}
				return session.Save(ctx, []core.Record{&document{Key: args[0], Fields: values}})
			})
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "A name=value field, may be repeated")
	return cmd
}

func docDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Write a tombstone for a key in the default dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				return session.Delete(ctx, "Document", &documentKey{Key: args[0]})
			})
		},
	}
}

func docQueryCmd() *cobra.Command {
	var wheres []string
	var sortFields []string
	var desc bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Range-query documents by key or field, latest-per-key across imports",
		Long: `Each --where takes the form field:op:value, where field is "Key" or
"Fields.<name>" and op is one of eq, lt, lte, gt, gte, in (in takes a
comma-separated value list). Results are ordered by --sort, ascending
unless --desc is set.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withSession(func(ctx context.Context, session *core.Session) error {
				return runDocQuery(ctx, session, wheres, sortFields, desc)
			})
		},
	}
	cmd.Flags().StringArrayVar(&wheres, "where", nil, "A field:op:value predicate, may be repeated")
	cmd.Flags().StringSliceVar(&sortFields, "sort", nil, "Comma-separated field names to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending instead of ascending")
	return cmd
}

func runDocQuery(ctx context.Context, session *core.Session, wheres, sortFields []string, desc bool) error {
	q := session.Query("Document")
	for _, raw := range wheres {
		pred, err := parsePredicate(raw)
		if err != nil {
			return err
		}
		q = q.Where(pred)
	}
	if len(sortFields) > 0 {
		if desc {
			q = q.SortByDesc(sortFields...)
		} else {
			q = q.SortBy(sortFields...)
		}
	}

	it, err := q.AsIterable(ctx)
	if err != nil {
		return err
	}
	defer it.Close()

	for {
		rec, err := it.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		printDocument(rec.(*document))
	}
}

func parsePredicate(raw string) (core.Predicate, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return core.Predicate{}, core.NewError(core.KindValidation, "--where %q must be field:op:value", raw)
	}
	field, op, value := parts[0], parts[1], parts[2]
	switch op {
	case "eq":
		return core.Eq(field, value), nil
	case "lt":
		return core.Lt(field, value), nil
	case "lte":
		return core.Lte(field, value), nil
	case "gt":
		return core.Gt(field, value), nil
	case "gte":
		return core.Gte(field, value), nil
	case "in":
		values := strings.Split(value, ",")
		anyValues := make([]any, len(values))
		for i, v := range values {
			anyValues[i] = v
		}
		return core.In(field, anyValues...), nil
	default:
		return core.Predicate{}, core.NewError(core.KindValidation, "--where %q: unrecognized op %q", raw, op)
	}
}

func printDocument(d *document) {
	fmt.Printf("id: %s\n", d.Meta().ID.String())
	fmt.Printf("key: %s\n", d.Key)
	fmt.Printf("fields: %s\n", formatFields(d.Fields))
}
