package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kiwari-pos/storefront/internal/enum"
	"github.com/kiwari-pos/storefront/internal/money"
	"github.com/kiwari-pos/storefront/internal/orders"
	"github.com/spf13/cobra"
)

// ordersCmd groups the operator's order commands
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List and update the orders of your restaurant",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the orders of your restaurant",
	Args:  cobra.NoArgs,
	RunE:  runOrdersList,
}

var ordersSetStatusCmd = &cobra.Command{
	Use:   "set-status <order-id> <status>",
	Short: "Move an order to a new status",
	Long: `Move an order to a new status. The remote service decides whether the
change is allowed; the status is sent as given.

Known statuses: ` + strings.Join([]string{
		enum.OrderStatusPlaced,
		enum.OrderStatusPaid,
		enum.OrderStatusInProgress,
		enum.OrderStatusOutForDelivery,
		enum.OrderStatusDelivered,
	}, ", "),
	Args: cobra.ExactArgs(2),
	RunE: runOrdersSetStatus,
}

func init() {
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersSetStatusCmd)
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	tracker := orders.NewTracker(apiClient(), printer(cmd.ErrOrStderr()), cliLogger())
	list, err := tracker.ListOrders(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tITEMS\tTOTAL\tCUSTOMER")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.Status, len(o.CartItems), money.Format(o.TotalAmount), o.DeliveryDetails.Name)
	}
	return tw.Flush()
}

func runOrdersSetStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	tracker := orders.NewTracker(apiClient(), printer(cmd.OutOrStdout()), cliLogger())
	return tracker.UpdateStatus(ctx, args[0], args[1])
}
