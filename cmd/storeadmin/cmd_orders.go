package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/pkg/app"
)

// storeadmin orders:list [--q term]
func newOrdersListCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "orders:list",
		Short: "List orders, optionally filtered by id or customer name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				orders, err := a.Orders.Search(ctx, query)
				if err != nil {
					return err
				}
				if len(orders) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No orders found.")
					return nil
				}
				printOrders(cmd.OutOrStdout(), orders)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "q", "q", "", "match order id or customer name")
	return cmd
}

// storeadmin orders:show <order> — order lines with their products.
func newOrdersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders:show <order-id>",
		Short: "Show an order's items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("order id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				o, err := a.Orders.Find(ctx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printOrders(out, []models.Order{o})
				fmt.Fprintln(out)

				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE")
				for _, it := range a.Orders.ItemDetails(ctx, o) {
					fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\n", it.ProductID, it.Product.Name, it.Quantity, it.PriceAtPurchase)
				}
				return w.Flush()
			})
		},
	}
}

// storeadmin orders:status <order> <status>
func newOrdersStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "orders:status <order-id> <status>",
		Short:     "Set an order's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: models.OrderStatuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("order id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				o, err := a.Orders.SetStatus(ctx, id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %d is now %s\n", o.ID, o.Status)
				return nil
			})
		},
	}
}

// storeadmin orders:paid <order>
func newOrdersPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders:paid <order-id>",
		Short: "Mark an order as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("order id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application) error {
				o, err := a.Orders.MarkPaid(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %d payment: %s\n", o.ID, o.PaymentStatus)
				return nil
			})
		},
	}
}

func printOrders(out io.Writer, orders []models.Order) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tSTATUS\tPAYMENT\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\n", o.ID, o.CustomerName(), o.Status, o.PaymentStatus, o.TotalPrice)
	}
	w.Flush()
}
