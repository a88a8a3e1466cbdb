package shop

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/spf13/cobra"
)

var (
	orderCmd = &cobra.Command{
		Use:   "order",
		Short: "Manage orders",
	}
	orderListCmd = &cobra.Command{
		Use:   "list [userId]",
		Short: "Lists the orders of a user (newest first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("userId", args[0])
			if err != nil {
				return err
			}
			orders, err := rpcShop.GetOrders(userID)
			if err != nil {
				return err
			}
			for _, o := range orders {
				fmt.Printf("%-6d %s  %-10s %10s  %d items\n", o.ID, o.CreatedAt.Format(time.DateTime), o.Status, o.Total, len(o.Items))
			}
			fmt.Printf("%d orders\n", len(orders))
			return nil
		},
	}
	orderGetCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Reads an order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			order, err := rpcShop.GetOrder(id)
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
	orderCheckoutCmd = &cobra.Command{
		Use:   "checkout [userId]",
		Short: "Turns the cart of a user into an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("userId", args[0])
			if err != nil {
				return err
			}
			order, err := rpcShop.Checkout(userID)
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
	orderStatusCmd = &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Sets the status of an order (pending, processing, completed, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			status, err := model.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}
			order, err := rpcShop.UpdateOrderStatus(id, status)
			if err != nil {
				return err
			}
			return printJSON(order)
		},
	}
)

func init() {
	orderCmd.AddCommand(orderListCmd)
	orderCmd.AddCommand(orderGetCmd)
	orderCmd.AddCommand(orderCheckoutCmd)
	orderCmd.AddCommand(orderStatusCmd)
}
