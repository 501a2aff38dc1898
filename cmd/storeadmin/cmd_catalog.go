package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/app"
)

// storeadmin category:add <parent> <name> [--spec name]...
func newCategoryAddCmd() *cobra.Command {
	var (
		specs    []string
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "category:add <parent-id> <name>",
		Short: "Add a child category with its initial specifications",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseID("parent category id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				cat, defs, err := a.Catalog.AddCategory(ctx, models.NewCategory{
					Name:             args[1],
					IsActive:         !inactive,
					ParentCategoryID: parent,
				}, specs)
				if cat.ID != 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Created category %d %q\n", cat.ID, cat.Name)
					for _, d := range defs {
						fmt.Fprintf(cmd.OutOrStdout(), "  specification %d %q\n", d.ID, d.Name)
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&specs, "spec", nil, "specification names to create with the category")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the category inactive")
	return cmd
}

// storeadmin brand:add <name>
func newBrandAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brand:add <name>",
		Short: "Add a brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				b, err := a.Catalog.AddBrand(ctx, models.NewBrand{Name: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created brand %d %q\n", b.ID, b.Name)
				return nil
			})
		},
	}
}

// storeadmin product:create --name ... — create a product with its
// specifications and images. When creation stops part way the creation log
// is written to --log so a rerun with --resume continues from it.
func newProductCreateCmd() *cobra.Command {
	var (
		in      models.NewProduct
		specs   []string
		primary string
		gallery []string
		disk    string
		logPath string
		resume  string
	)
	cmd := &cobra.Command{
		Use:   "product:create",
		Short: "Create a product with specifications and images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				var draft services.ProductDraft
				draft.Product = in

				if len(specs) > 0 {
					schema, err := a.Catalog.Schema(ctx, in.CategoryID)
					if err != nil {
						return err
					}
					draft.Specifications = models.WorkingValues{}
					for _, s := range specs {
						defID, value, err := parseAssignment(schema, s)
						if err != nil {
							return err
						}
						draft.Specifications[defID] = value
					}
				}

				var files []services.File
				defer func() {
					for _, f := range files {
						f.Close()
					}
				}()
				if primary != "" {
					f, err := openSource(ctx, a, disk, primary)
					if err != nil {
						return err
					}
					files = append(files, f)
					draft.PrimaryImage = &f
				}
				for _, p := range gallery {
					f, err := openSource(ctx, a, disk, p)
					if err != nil {
						return err
					}
					files = append(files, f)
					draft.Gallery = append(draft.Gallery, f)
				}

				var (
					log *services.CreationLog
					err error
				)
				if resume != "" {
					prev, rerr := readCreationLog(resume)
					if rerr != nil {
						return rerr
					}
					log, err = a.Catalog.ResumeProduct(ctx, prev, draft)
				} else {
					log, err = a.Catalog.CreateProduct(ctx, draft)
				}

				var cerr *services.CreationError
				if errors.As(err, &cerr) && logPath != "" {
					if werr := writeCreationLog(logPath, cerr.Log); werr != nil {
						return errors.Join(err, werr)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Creation log written to %s; rerun with --resume %s\n", logPath, logPath)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created product %d (%d gallery images)\n", log.ProductID, log.GalleryAttached)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "product name")
	f.Int64Var(&in.CategoryID, "category", 0, "category id")
	f.Int64Var(&in.BrandID, "brand", 0, "brand id")
	f.StringVar(&in.ModelName, "model", "", "model name")
	f.Float64Var(&in.Price, "price", 0, "price")
	f.IntVar(&in.Discount, "discount", 0, "discount percent")
	f.IntVar(&in.StockCount, "stock", 0, "units in stock")
	f.StringVar(&in.SearchKeywords, "keywords", "", "search keywords")
	f.BoolVar(&in.IsSuperOffer, "super", false, "mark as super offer")
	f.BoolVar(&in.IsNew, "new", false, "mark as new")
	f.Int64Var(&in.AuthorID, "author", 0, "author id")
	f.StringArrayVar(&specs, "spec", nil, "specification value as <definition>=<value>")
	f.StringVar(&primary, "primary", "", "primary image path")
	f.StringArrayVar(&gallery, "gallery", nil, "gallery image path")
	f.StringVar(&disk, "disk", "", "storage disk holding the images (local, s3)")
	f.StringVar(&logPath, "log", "", "write the creation log here when creation stops part way")
	f.StringVar(&resume, "resume", "", "continue from a creation log written by --log")
	return cmd
}

func readCreationLog(path string) (*services.CreationLog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log services.CreationLog
	if err := json.Unmarshal(b, &log); err != nil {
		return nil, fmt.Errorf("creation log %s: %w", path, err)
	}
	return &log, nil
}

func writeCreationLog(path string, log *services.CreationLog) error {
	b, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
