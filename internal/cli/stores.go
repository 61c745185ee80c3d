package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/shop"
)

// NewStoreCommand creates the store command group.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Add, inspect and delete stores",
	}
	cmd.AddCommand(newStoreListCommand(rootOpts))
	cmd.AddCommand(newStoreGetCommand(rootOpts))
	cmd.AddCommand(newStoreAddCommand(rootOpts))
	cmd.AddCommand(newStoreDeleteCommand(rootOpts))
	return cmd
}

func newStoreListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all stores",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				stores, err := s.repo.GetAllStores(cmdContext(cmd))
				if err != nil {
					return failed("failed to list stores", err)
				}
				return opts.formatter(cmd).Render(stores, func(w io.Writer) error {
					return printStores(w, stores)
				})
			})
		},
	}
}

func newStoreGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <store-id>",
		Short: "Show a store with its products and orders",
		Example: `  storefront store get 1
  storefront store get 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("store-id", args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				st, err := s.repo.GetStoreByID(cmdContext(cmd), id)
				if err != nil {
					return failed("failed to get store", err)
				}
				return opts.formatter(cmd).Render(st, func(w io.Writer) error {
					return printStore(w, st)
				})
			})
		},
	}
}

// storeFlags holds flags for store add.
type storeFlags struct {
	id                         int
	name, address, city, state string
}

func newStoreAddCommand(opts *RootOptions) *cobra.Command {
	f := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a store",
		Example: `  storefront store add --id 1 --name "Pacific Branch" --city "San Diego" --state CA`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				st := shop.Store{ID: f.id, Name: f.name, Address: f.address, City: f.city, State: f.state}
				if err := s.repo.AddStore(cmdContext(cmd), st); err != nil {
					return failed("failed to add store", err)
				}
				return opts.formatter(cmd).Render(st, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added store %d (%s)\n", st.ID, st.Name)
					return err
				})
			})
		},
	}
	cmd.Flags().IntVar(&f.id, "id", 0, "store id (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "store name (required)")
	cmd.Flags().StringVar(&f.address, "address", "", "street address")
	cmd.Flags().StringVar(&f.city, "city", "", "city")
	cmd.Flags().StringVar(&f.state, "state", "", "state")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newStoreDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <store-id>",
		Short: "Delete a store with its products and orders",
		Long: `Delete a store together with its products, its store orders and every
product order belonging to them.

On a backend without transactions a failure can leave the store partly
deleted; the command then exits with code 1 and names the steps that ran.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("store-id", args[0])
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				if err := s.repo.DeleteStore(cmdContext(cmd), id); err != nil {
					return failed("failed to delete store", err)
				}
				return opts.formatter(cmd).Render(map[string]int{"deleted": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted store %d\n", id)
					return err
				})
			})
		},
	}
}

func printStores(w io.Writer, stores []shop.Store) error {
	if len(stores) == 0 {
		_, err := fmt.Fprintln(w, "No stores.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCITY\tSTATE\tPRODUCTS\tORDERS")
	for _, st := range stores {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", st.ID, st.Name, st.City, st.State, len(st.Products), len(st.StoreOrders))
	}
	return tw.Flush()
}

func printStore(w io.Writer, st shop.Store) error {
	fmt.Fprintf(w, "Store %d: %s\n", st.ID, st.Name)
	fmt.Fprintf(w, "  %s, %s %s\n", st.Address, st.City, st.State)
	fmt.Fprintln(w)
	if err := printProducts(w, st.Products); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return printOrders(w, st.StoreOrders)
}

// failed marks err as a rejected operation.
func failed(msg string, err error) error {
	return WrapExitError(ExitFailure, msg, err)
}

// parseID parses a positive integer argument.
func parseID(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > shop.MaxInt {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("%s must be an integer from 1 to %d, got %q", name, shop.MaxInt, raw))
	}
	return n, nil
}

// cmdContext returns the command's context, or Background when unset.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
