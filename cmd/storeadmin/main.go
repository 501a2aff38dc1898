// Command storeadmin administers the store backend: product specification
// values, product images, orders and the catalog, plus the dashboard API
// server.
//
//	storeadmin serve
//	storeadmin spec:show 42
//	storeadmin spec:set 42 Color=Blue 7=2kg
//	storeadmin image:primary 42 photos/front.jpg --disk s3
//	storeadmin orders:list --q lovelace
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storeadmin/pkg/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// appOptions are applied to every Application a command builds.
var appOptions []app.Option

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storeadmin",
		Short:         "Store administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Server
	root.AddCommand(newServeCmd())
	root.AddCommand(newRouteListCmd())

	// Specifications
	root.AddCommand(newSpecShowCmd())
	root.AddCommand(newSpecSetCmd())
	root.AddCommand(newSpecDeleteCmd())
	root.AddCommand(newSpecAddCmd())

	// Images
	root.AddCommand(newImagePrimaryCmd())
	root.AddCommand(newImageAddCmd())
	root.AddCommand(newImageDeleteCmd())

	// Orders
	root.AddCommand(newOrdersListCmd())
	root.AddCommand(newOrdersShowCmd())
	root.AddCommand(newOrdersStatusCmd())
	root.AddCommand(newOrdersPaidCmd())

	// Catalog
	root.AddCommand(newCategoryAddCmd())
	root.AddCommand(newBrandAddCmd())
	root.AddCommand(newProductCreateCmd())

	return root
}

// withApp runs fn on a freshly built Application and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, appOptions...)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}
