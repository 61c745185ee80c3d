package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/shop"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register and list customers",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserListCommand(rootOpts))
	cmd.AddCommand(newUserLoginCommand(rootOpts))
	return cmd
}

// passwordFlags selects where a password is read from.
type passwordFlags struct {
	password string
	stdin    bool
}

func (p *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.password, "password", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&p.stdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func (p *passwordFlags) read(cmd *cobra.Command) (string, error) {
	if !p.stdin {
		return p.password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", WrapExitError(ExitCommandError, "failed to read password from stdin", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newUserAddCommand(opts *RootOptions) *cobra.Command {
	pw := &passwordFlags{}
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Register a customer",
		Example: `  echo 'correct horse' | storefront user add ana --password-stdin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.read(cmd)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				u, err := s.repo.AddUser(cmdContext(cmd), args[0], password)
				if err != nil {
					return failed("failed to add user", err)
				}
				return opts.formatter(cmd).Render(u, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added user %d (%s)\n", u.ID, u.Username)
					return err
				})
			})
		},
	}
	pw.register(cmd)
	return cmd
}

func newUserListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List customers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				users, err := s.repo.GetAllUsers(cmdContext(cmd))
				if err != nil {
					return failed("failed to list users", err)
				}
				return opts.formatter(cmd).Render(users, func(w io.Writer) error {
					return printUsers(w, users)
				})
			})
		},
	}
}

func newUserLoginCommand(opts *RootOptions) *cobra.Command {
	pw := &passwordFlags{}
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Check a customer password",
		Long: `Check a customer password. Exits with code 1 when the username or
password is wrong.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.read(cmd)
			if err != nil {
				return err
			}
			return opts.withSession(cmd, func(s *session) error {
				ok, err := s.repo.LoginUser(cmdContext(cmd), args[0], password)
				if err != nil {
					return failed("failed to log in", err)
				}
				if !ok {
					return NewExitError(ExitFailure, "invalid username or password")
				}
				return opts.formatter(cmd).Render(map[string]bool{"authenticated": true}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Login OK")
					return err
				})
			})
		},
	}
	pw.register(cmd)
	return cmd
}

func printUsers(w io.Writer, users []shop.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\n", u.ID, u.Username)
	}
	return tw.Flush()
}
