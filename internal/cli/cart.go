package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/shop"
)

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Fill, inspect and check out customer carts",
	}
	cmd.AddCommand(newCartShowCommand(rootOpts))
	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartEditCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartClearCommand(rootOpts))
	cmd.AddCommand(newCartCheckoutCommand(rootOpts))
	return cmd
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <username>",
		Short:         "Show the cart of a customer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				lines, err := s.repo.GetCart(cmdContext(cmd), args[0])
				if err != nil {
					return failed("failed to get cart", err)
				}
				return opts.formatter(cmd).Render(lines, func(w io.Writer) error {
					return printLines(w, lines)
				})
			})
		},
	}
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var storeID, productID, quantity int
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Put units of a product in a cart",
		Example: `  storefront cart add ana --store 1 --product 2 --quantity 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				line, err := s.repo.AddProductOrder(cmdContext(cmd), args[0], storeID, productID, quantity)
				if err != nil {
					return failed("failed to add to cart", err)
				}
				return opts.formatter(cmd).Render(line, func(w io.Writer) error {
					return printLines(w, []shop.ProductOrder{line})
				})
			})
		},
	}
	cmd.Flags().IntVar(&storeID, "store", 0, "store id (required)")
	cmd.Flags().IntVar(&productID, "product", 0, "product id (required)")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "units to add")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func newCartEditCommand(opts *RootOptions) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:           "edit <line-id>",
		Short:         "Change the quantity of a cart line",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("line-id", args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				line, err := s.repo.EditProductOrder(cmdContext(cmd), id, quantity)
				if err != nil {
					return failed("failed to edit cart line", err)
				}
				return opts.formatter(cmd).Render(line, func(w io.Writer) error {
					return printLines(w, []shop.ProductOrder{line})
				})
			})
		},
	}
	cmd.Flags().IntVar(&quantity, "quantity", 0, "new quantity (required)")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <line-id>",
		Short:         "Remove a line from a cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("line-id", args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				if err := s.repo.DeleteProductOrder(cmdContext(cmd), id); err != nil {
					return failed("failed to remove cart line", err)
				}
				return opts.formatter(cmd).Render(map[string]int{"removed": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Removed cart line %d\n", id)
					return err
				})
			})
		},
	}
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear <username>",
		Short:         "Empty the cart of a customer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.repo.ClearCart(cmdContext(cmd), args[0])
				if err != nil {
					return failed("failed to clear cart", err)
				}
				return opts.formatter(cmd).Render(map[string]int64{"removed": n}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Removed %d cart lines\n", n)
					return err
				})
			})
		},
	}
}

func newCartCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <username>",
		Short: "Turn a cart into one store order per store",
		Long: `Turn the cart of a customer into store orders.

Stock is checked and decremented in one step; if any product is short
nothing is ordered and the command exits with code 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				orders, err := s.repo.Checkout(cmdContext(cmd), args[0])
				if err != nil {
					return failed("checkout failed", err)
				}
				return opts.formatter(cmd).Render(orders, func(w io.Writer) error {
					return printOrders(w, orders)
				})
			})
		},
	}
}

func printLines(w io.Writer, lines []shop.ProductOrder) error {
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSTORE\tPRODUCT\tITEM\tQUANTITY\tTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%d\t%s\n", l.ID, l.StoreID, l.ProductID, l.ItemName, l.Quantity, l.TotalPrice.StringFixed(2))
	}
	return tw.Flush()
}
