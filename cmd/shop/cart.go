package shop

import (
	"fmt"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/spf13/cobra"
)

var (
	cartCmd = &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart of a user",
	}
	cartListCmd = &cobra.Command{
		Use:   "list [userId]",
		Short: "Lists the cart of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("userId", args[0])
			if err != nil {
				return err
			}
			items, err := rpcShop.GetCartItems(userID)
			if err != nil {
				return err
			}

			var total int64
			for _, item := range items {
				fmt.Printf("%-6d %-40s %4d x %10s\n", item.ID, item.Product.Name, item.Quantity, item.Product.Price)
				line, err := model.LineTotal(item.Product.Price, item.Quantity)
				if err != nil {
					return fmt.Errorf("cart item %d: %w", item.ID, err)
				}
				if total, err = model.AddCents(total, line); err != nil {
					return err
				}
			}
			fmt.Printf("%d items, total %s\n", len(items), model.FormatCents(total))
			return nil
		},
	}
	cartAddCmd = &cobra.Command{
		Use:   "add [userId] [productId] [quantity]",
		Short: "Adds a product to the cart of a user",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("userId", args[0])
			if err != nil {
				return err
			}
			productID, err := parseID("productId", args[1])
			if err != nil {
				return err
			}
			quantity := int64(1)
			if len(args) == 3 {
				if quantity, err = parseQuantity(args[2]); err != nil {
					return err
				}
			}

			item, err := rpcShop.AddToCart(model.InsertCartItem{UserID: userID, ProductID: productID, Quantity: quantity})
			if err != nil {
				return err
			}
			return printJSON(item)
		},
	}
	cartUpdateCmd = &cobra.Command{
		Use:   "update [itemId] [quantity]",
		Short: "Sets the quantity of a cart item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("itemId", args[0])
			if err != nil {
				return err
			}
			quantity, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			item, err := rpcShop.UpdateCartItem(id, quantity)
			if err != nil {
				return err
			}
			return printJSON(item)
		},
	}
	cartRemoveCmd = &cobra.Command{
		Use:   "remove [itemId]",
		Short: "Removes an item from a cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("itemId", args[0])
			if err != nil {
				return err
			}
			deleted, err := rpcShop.RemoveFromCart(id)
			if err != nil {
				return err
			}
			fmt.Printf("id=%d, deleted=%v\n", id, deleted)
			return nil
		},
	}
	cartClearCmd = &cobra.Command{
		Use:   "clear [userId]",
		Short: "Removes all items from the cart of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("userId", args[0])
			if err != nil {
				return err
			}
			if err := rpcShop.ClearCart(userID); err != nil {
				return err
			}
			fmt.Println("cart cleared")
			return nil
		},
	}
)

func init() {
	cartCmd.AddCommand(cartListCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartUpdateCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartClearCmd)
}
