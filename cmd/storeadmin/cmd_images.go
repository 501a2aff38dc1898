package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/app"
)

// openSource opens path on the named storage disk ("" is the default disk).
func openSource(ctx context.Context, a *app.Application, disk, path string) (services.File, error) {
	d, err := a.Disk(disk)
	if err != nil {
		return services.File{}, err
	}
	return services.OpenFromDisk(ctx, d, path)
}

// storeadmin image:primary <product> <path> — replace the primary image.
func newImagePrimaryCmd() *cobra.Command {
	var disk string
	cmd := &cobra.Command{
		Use:   "image:primary <product-id> <path>",
		Short: "Upload a file and make it the product's primary image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				f, err := openSource(ctx, a, disk, args[1])
				if err != nil {
					return err
				}
				defer f.Close()

				url, err := a.Images.SetPrimary(ctx, pid, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Primary image of product %d: %s\n", pid, url)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&disk, "disk", "", "storage disk holding the file (local, s3)")
	return cmd
}

// storeadmin image:add <product> <path>... — append gallery images.
func newImageAddCmd() *cobra.Command {
	var disk string
	cmd := &cobra.Command{
		Use:   "image:add <product-id> <path>...",
		Short: "Upload files into the product's gallery",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				for _, p := range args[1:] {
					f, err := openSource(ctx, a, disk, p)
					if err != nil {
						return err
					}
					img, err := a.Images.AddGallery(ctx, pid, f)
					f.Close()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added image %d: %s\n", img.ID, img.ImageURL)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&disk, "disk", "", "storage disk holding the files (local, s3)")
	return cmd
}

// storeadmin image:delete <image> — remove a gallery image.
func newImageDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image:delete <image-id>",
		Short: "Delete a gallery image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("image id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if err := a.Images.DeleteGallery(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted image %d\n", id)
				return nil
			})
		},
	}
}
