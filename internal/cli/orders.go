package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/repo"
	"github.com/roach88/storefront/internal/shop"
)

// NewOrderCommand creates the order command group.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "List and record store orders",
	}
	cmd.AddCommand(newOrderListCommand(rootOpts))
	cmd.AddCommand(newOrderAddCommand(rootOpts))
	return cmd
}

func newOrderListCommand(opts *RootOptions) *cobra.Command {
	var (
		username string
		storeID  int
		sortBy   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the store orders of a customer or a store",
		Example: `  storefront order list --user ana --sort highest
  storefront order list --store 1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			by, err := repo.ParseOrderSort(sortBy)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --sort", err)
			}
			if (username == "") == (storeID == 0) {
				return NewExitError(ExitCommandError, "exactly one of --user or --store is required")
			}
			return opts.withSession(cmd, func(s *session) error {
				var orders []shop.StoreOrder
				if username != "" {
					orders, err = s.repo.GetStoreOrders(cmdContext(cmd), username, by)
				} else {
					orders, err = s.repo.GetStoreOrdersForStore(cmdContext(cmd), storeID, by)
				}
				if err != nil {
					return failed("failed to list orders", err)
				}
				return opts.formatter(cmd).Render(orders, func(w io.Writer) error {
					return printOrders(w, orders)
				})
			})
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "orders placed by this customer")
	cmd.Flags().IntVar(&storeID, "store", 0, "orders placed at this store")
	cmd.Flags().StringVar(&sortBy, "sort", string(repo.SortNewest), "newest|oldest|highest|lowest")
	return cmd
}

func newOrderAddCommand(opts *RootOptions) *cobra.Command {
	var (
		id        int
		userID    int
		userName  string
		reference string
		total     string
	)
	cmd := &cobra.Command{
		Use:   "add <store-id>",
		Short: "Record a store order without product lines",
		Long: `Record a store order row directly. Product lines are not created; use
"cart checkout" to order from a cart.

A missing --id takes the next free id and a missing --reference gets a
generated one. The order is stamped with the current time.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, err := parseID("store-id", args[0])
			if err != nil {
				return err
			}
			amount, err := parsePrice(total)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				so, err := s.repo.AddStoreOrder(cmdContext(cmd), storeID, shop.StoreOrder{
					ID:          id,
					UserID:      userID,
					UserName:    userName,
					ReferenceID: reference,
					TotalAmount: amount,
				})
				if err != nil {
					return failed("failed to add store order", err)
				}
				return opts.formatter(cmd).Render(so, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added store order %d (%s) to store %d\n", so.ID, so.ReferenceID, storeID)
					return err
				})
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "store order id (default: next free id)")
	cmd.Flags().IntVar(&userID, "user-id", 0, "id of the ordering customer")
	cmd.Flags().StringVar(&userName, "user-name", "", "name of the ordering customer")
	cmd.Flags().StringVar(&reference, "reference", "", "reference id (default: generated)")
	cmd.Flags().StringVar(&total, "total", "0", "total amount")
	return cmd
}

func printOrders(w io.Writer, orders []shop.StoreOrder) error {
	if len(orders) == 0 {
		_, err := fmt.Fprintln(w, "No orders.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTORE\tCUSTOMER\tREFERENCE\tDATE\tLINES\tTOTAL")
	for _, so := range orders {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%d\t%s\n",
			so.ID, so.StoreID, so.UserName, so.ReferenceID,
			so.CurrDate.UTC().Format(time.DateTime), len(so.ProductOrders), so.TotalAmount.StringFixed(2))
	}
	return tw.Flush()
}
