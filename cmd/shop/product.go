package shop

import (
	"fmt"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/spf13/cobra"
)

var (
	productCmd = &cobra.Command{
		Use:   "product",
		Short: "Manage the product catalog",
	}
	productListCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := rpcShop.GetProducts()
			if err != nil {
				return err
			}
			printProducts(products)
			return nil
		},
	}
	productGetCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Reads a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			product, err := rpcShop.GetProduct(id)
			if err != nil {
				return err
			}
			return printJSON(product)
		},
	}
	productSearchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Searches name, description and category of all products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := rpcShop.SearchProducts(args[0])
			if err != nil {
				return err
			}
			printProducts(products)
			return nil
		},
	}
	productCreateCmd = &cobra.Command{
		Use:   "create [name] [price]",
		Short: "Creates a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			description, _ := flags.GetString("description")
			category, _ := flags.GetString("category")
			stock, _ := flags.GetInt64("stock")
			imageURL, _ := flags.GetString("image-url")

			if description == "" {
				description = args[0]
			}
			insert := model.InsertProduct{
				Name:        args[0],
				Description: description,
				Price:       args[1],
				Category:    category,
				Stock:       stock,
				ImageURL:    imageURL,
			}
			if err := insert.Validate(); err != nil {
				return err
			}

			product, err := rpcShop.CreateProduct(insert)
			if err != nil {
				return err
			}
			return printJSON(product)
		},
	}
	productUpdateCmd = &cobra.Command{
		Use:   "update [id]",
		Short: "Updates the given fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}

			var patch model.ProductPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				v, _ := flags.GetString("name")
				patch.Name = &v
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				patch.Description = &v
			}
			if flags.Changed("price") {
				v, _ := flags.GetString("price")
				patch.Price = &v
			}
			if flags.Changed("category") {
				v, _ := flags.GetString("category")
				patch.Category = &v
			}
			if flags.Changed("stock") {
				v, _ := flags.GetInt64("stock")
				patch.Stock = &v
			}
			if flags.Changed("image-url") {
				v, _ := flags.GetString("image-url")
				patch.ImageURL = &v
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update, set at least one field flag")
			}
			if err := patch.Validate(); err != nil {
				return err
			}

			product, err := rpcShop.UpdateProduct(id, patch)
			if err != nil {
				return err
			}
			return printJSON(product)
		},
	}
	productDeleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[0])
			if err != nil {
				return err
			}
			deleted, err := rpcShop.DeleteProduct(id)
			if err != nil {
				return err
			}
			fmt.Printf("id=%d, deleted=%v\n", id, deleted)
			return nil
		},
	}
	productSeedCmd = &cobra.Command{
		Use:   "seed [file]",
		Short: "Seeds an empty shard with the built-in catalog or the catalog of a yaml file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			products, err := catalog.Load(path)
			if err != nil {
				return err
			}
			created, err := catalog.Seed(rpcShop, products)
			if err != nil {
				return err
			}
			fmt.Printf("created %d products\n", created)
			return nil
		},
	}
)

func init() {
	productCmd.AddCommand(productListCmd)
	productCmd.AddCommand(productGetCmd)
	productCmd.AddCommand(productSearchCmd)
	productCmd.AddCommand(productCreateCmd)
	productCmd.AddCommand(productUpdateCmd)
	productCmd.AddCommand(productDeleteCmd)
	productCmd.AddCommand(productSeedCmd)

	productCreateCmd.Flags().String("description", "", "Description of the product (defaults to the name)")
	productCreateCmd.Flags().String("category", "General", "Category of the product")
	productCreateCmd.Flags().Int64("stock", 0, "Number of items in stock")
	productCreateCmd.Flags().String("image-url", "", "Absolute http(s) url of the product image")

	productUpdateCmd.Flags().String("name", "", "New name")
	productUpdateCmd.Flags().String("description", "", "New description")
	productUpdateCmd.Flags().String("price", "", "New price (e.g. 19.99)")
	productUpdateCmd.Flags().String("category", "", "New category")
	productUpdateCmd.Flags().Int64("stock", 0, "New stock")
	productUpdateCmd.Flags().String("image-url", "", "New image url")
}

// printProducts prints one product per line
func printProducts(products []model.Product) {
	for _, p := range products {
		fmt.Printf("%-6d %-40s %10s  stock=%-5d %s\n", p.ID, p.Name, p.Price, p.Stock, p.Category)
	}
	fmt.Printf("%d products\n", len(products))
}
