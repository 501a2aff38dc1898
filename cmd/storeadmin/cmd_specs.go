package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/app/session"
	"github.com/shashiranjanraj/storeadmin/pkg/app"
)

// storeadmin spec:show <product> — the product's specification values.
func newSpecShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec:show <product-id>",
		Short: "Show a product's specification values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				_, snap, err := a.Sessions.Open(ctx, pid)
				if err != nil {
					return err
				}
				printSnapshot(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}
}

// storeadmin spec:set <product> <definition>=<value>... — edit and save.
// A definition is named by id or by its exact name. Empty values are
// skipped; spec:delete removes a recorded value.
func newSpecSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec:set <product-id> <definition>=<value>...",
		Short: "Set specification values and save them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				e, snap, err := a.Sessions.Open(ctx, pid)
				if err != nil {
					return err
				}
				for _, arg := range args[1:] {
					defID, value, err := parseAssignment(snap.Schema, arg)
					if err != nil {
						return err
					}
					if err := e.EditField(defID, value); err != nil {
						return err
					}
				}

				res, err := e.Submit(ctx)
				if res != nil {
					printResult(cmd.OutOrStdout(), res)
				}
				return err
			})
		},
	}
}

// storeadmin spec:delete <product> <definition> — remove one recorded value.
func newSpecDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec:delete <product-id> <definition-id>",
		Short: "Delete a product's value for one specification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			defID, err := parseID("definition id", args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if err := a.Reconciler.DeleteValue(ctx, pid, defID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted specification %d of product %d\n", defID, pid)
				return nil
			})
		},
	}
}

// storeadmin spec:add <category> <name> — new specification definition.
func newSpecAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec:add <category-id> <name>",
		Short: "Add a specification definition to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cid, err := parseID("category id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				def, err := a.Catalog.AddSpecification(ctx, models.NewSpecificationDefinition{
					Name:       args[1],
					CategoryID: cid,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created specification %d %q\n", def.ID, def.Name)
				return nil
			})
		},
	}
}

// parseAssignment splits "key=value" and resolves key against schema.
func parseAssignment(schema []models.SpecificationDefinition, arg string) (int64, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		return 0, "", fmt.Errorf("expected <definition>=<value>, got %q", arg)
	}
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		for _, d := range schema {
			if d.ID == id {
				return id, value, nil
			}
		}
	}
	for _, d := range schema {
		if d.Name == key {
			return d.ID, value, nil
		}
	}
	return 0, "", fmt.Errorf("unknown specification %q", key)
}

func printSnapshot(out io.Writer, snap session.Snapshot) {
	fmt.Fprintf(out, "Product %d: %s\n", snap.Product.ID, snap.Product.Name)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSPECIFICATION\tVALUE")
	for _, d := range snap.Schema {
		fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Name, snap.Values[d.ID])
	}
	w.Flush()
}

func printResult(out io.Writer, res *services.ReconcileResult) {
	if len(res.Results) == 0 {
		fmt.Fprintln(out, "Nothing to save")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SPECIFICATION\tWRITE\tRESULT")
	for _, r := range res.Results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Write.Label(), r.Write.Kind, status)
	}
	w.Flush()
}
