package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/storefront/internal/api"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// Listener, if set, is served instead of listening on Addr (for testing).
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long: `Serve the storefront JSON HTTP API until interrupted.

The database schema is created on startup if it is missing.

Example:
  storefront serve --db ./storefront.db --addr :8080
  storefront serve --config storefront.yaml --verbose
  storefront serve --driver memory`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	return opts.withSession(cmd, func(s *session) error {
		addr := s.cfg.HTTP.Addr
		if opts.Addr != "" {
			addr = opts.Addr
		}

		handler := api.New(s.repo, s.logger)
		srv := api.NewHTTPServer(addr, handler, s.cfg.HTTP.ReadTimeout, s.cfg.HTTP.WriteTimeout)

		ln := opts.Listener
		if ln == nil {
			var err error
			if ln, err = net.Listen("tcp", addr); err != nil {
				return WrapExitError(ExitCommandError, "failed to listen", err)
			}
		}

		// Use command's context if available (for testing), otherwise create one
		parentCtx := cmd.Context()
		if parentCtx == nil {
			parentCtx = context.Background()
		}
		ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			s.logger.Info("shutting down", "addr", ln.Addr().String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		s.logger.Info("server starting",
			"addr", ln.Addr().String(),
			"driver", s.cfg.Database.Driver,
			"transactional", s.repo.Transactional(),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())

		if err := g.Wait(); err != nil {
			return WrapExitError(ExitFailure, "server error", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})
}
