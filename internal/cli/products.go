package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/shop"
)

// NewProductCommand creates the product command group.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the inventory of a store",
	}
	cmd.AddCommand(newProductListCommand(rootOpts))
	cmd.AddCommand(newProductGetCommand(rootOpts))
	cmd.AddCommand(newProductAddCommand(rootOpts))
	cmd.AddCommand(newProductEditCommand(rootOpts))
	cmd.AddCommand(newProductDeleteCommand(rootOpts))
	return cmd
}

func newProductListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <store-id>",
		Short:         "List the products of a store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, err := parseID("store-id", args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				st, err := s.repo.GetStoreByID(cmdContext(cmd), storeID)
				if err != nil {
					return failed("failed to list products", err)
				}
				return opts.formatter(cmd).Render(st.Products, func(w io.Writer) error {
					return printProducts(w, st.Products)
				})
			})
		},
	}
}

func newProductGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <store-id> <product-id>",
		Short:         "Show one product",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, productID, err := parseProductArgs(args)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				p, err := s.repo.GetProductByID(cmdContext(cmd), storeID, productID)
				if err != nil {
					return failed("failed to get product", err)
				}
				return opts.formatter(cmd).Render(p, func(w io.Writer) error {
					return printProducts(w, []shop.Product{p})
				})
			})
		},
	}
}

// productFlags holds flags shared by product add and edit.
type productFlags struct {
	id          int
	name        string
	description string
	price       string
	quantity    int
}

func newProductAddCommand(opts *RootOptions) *cobra.Command {
	f := &productFlags{}
	cmd := &cobra.Command{
		Use:   "add <store-id>",
		Short: "Add a product to a store",
		Example: `  storefront product add 1 --id 3 --name "USB-C cable" --price 9.99 --quantity 40`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, err := parseID("store-id", args[0])
			if err != nil {
				return err
			}
			price, err := parsePrice(f.price)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				p := shop.Product{
					ID:          f.id,
					StoreID:     storeID,
					Name:        f.name,
					Description: f.description,
					Price:       price,
					Quantity:    f.quantity,
				}
				if err := s.repo.AddProduct(cmdContext(cmd), storeID, p); err != nil {
					return failed("failed to add product", err)
				}
				return opts.formatter(cmd).Render(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added product %d (%s) to store %d\n", p.ID, p.Name, storeID)
					return err
				})
			})
		},
	}
	cmd.Flags().IntVar(&f.id, "id", 0, "product id, unique within the store (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "product name (required)")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.price, "price", "0", "unit price")
	cmd.Flags().IntVar(&f.quantity, "quantity", 0, "units in stock")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProductEditCommand(opts *RootOptions) *cobra.Command {
	f := &productFlags{}
	cmd := &cobra.Command{
		Use:   "edit <store-id> <product-id>",
		Short: "Change the description, price or stock of a product",
		Long: `Change the description, price or stock of a product.

Flags that are not given keep their current value. Name and ids never change.`,
		Example: `  storefront product edit 1 2 --price 17.50 --quantity 12`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, productID, err := parseProductArgs(args)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				ctx := cmdContext(cmd)
				p, err := s.repo.GetProductByID(ctx, storeID, productID)
				if err != nil {
					return failed("failed to edit product", err)
				}
				if cmd.Flags().Changed("description") {
					p.Description = f.description
				}
				if cmd.Flags().Changed("price") {
					if p.Price, err = parsePrice(f.price); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("quantity") {
					p.Quantity = f.quantity
				}
				if err := s.repo.EditProduct(ctx, storeID, productID, p.Description, p.Price, p.Quantity); err != nil {
					return failed("failed to edit product", err)
				}
				return opts.formatter(cmd).Render(p, func(w io.Writer) error {
					return printProducts(w, []shop.Product{p})
				})
			})
		},
	}
	cmd.Flags().StringVar(&f.description, "description", "", "new description")
	cmd.Flags().StringVar(&f.price, "price", "", "new unit price")
	cmd.Flags().IntVar(&f.quantity, "quantity", 0, "new units in stock")
	return cmd
}

func newProductDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <store-id> <product-id>",
		Short:         "Delete a product and the order lines that reference it",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, productID, err := parseProductArgs(args)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				if err := s.repo.DeleteProduct(cmdContext(cmd), storeID, productID); err != nil {
					return failed("failed to delete product", err)
				}
				result := map[string]int{"store_id": storeID, "deleted": productID}
				return opts.formatter(cmd).Render(result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted product %d of store %d\n", productID, storeID)
					return err
				})
			})
		},
	}
}

func printProducts(w io.Writer, products []shop.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "No products.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQUANTITY\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Quantity, p.Description)
	}
	return tw.Flush()
}

func parseProductArgs(args []string) (storeID, productID int, err error) {
	if storeID, err = parseID("store-id", args[0]); err != nil {
		return 0, 0, err
	}
	if productID, err = parseID("product-id", args[1]); err != nil {
		return 0, 0, err
	}
	return storeID, productID, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --price %q", raw), err)
	}
	return price, nil
}
