package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/repo"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/store/memstore"
	"github.com/roach88/storefront/internal/store/sqlstore"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigPath string
	Driver     string
	Database   string

	// Backend, when set, is used instead of opening the configured database.
	// Tests use it to share one in-memory store across commands.
	Backend store.Backend

	// RepoOptions are appended when building the repository (for testing).
	RepoOptions []repo.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storefront CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront - stores, inventory and orders",
		Long: `Manage a chain of stores with their inventory, customer carts and orders.

Data lives in SQLite by default; PostgreSQL, MySQL and an in-memory store are
also supported. Settings come from storefront.yaml (--config) and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to storefront.yaml")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|postgres|mysql|memory)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database DSN; a file path for sqlite3")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported on stderr, or on stdout as a JSON error response
// when --format json is in effect.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Writer = stdout
	}
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}
	if o.Database != "" {
		cfg.Database.DSN = o.Database
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// session is an open repository plus what is needed to tear it down.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	backend store.Backend
	repo    *repo.Repository
	closer  io.Closer
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// open loads configuration, connects the backend and builds the repository.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr(), o.Verbose)

	s := &session{cfg: cfg, logger: logger}
	backend := o.Backend
	if backend == nil {
		backend, s.closer, err = openBackend(cfg.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
	}
	s.backend = backend
	o.formatter(cmd).VerboseLog("using %s database", cfg.Database.Driver)
	logger.Debug("database ready", "driver", cfg.Database.Driver)

	opts := append([]repo.Option{repo.WithLogger(logger)}, o.RepoOptions...)
	s.repo = repo.New(backend, opts...)
	return s, nil
}

// openBackend connects the configured database.
func openBackend(db config.Database) (store.Backend, io.Closer, error) {
	if db.Driver == config.DriverMemory {
		return memstore.New(), nil, nil
	}
	st, err := sqlstore.Open(sqlstore.Config{Driver: db.Driver, DSN: db.DSN})
	if err != nil {
		return nil, nil, err
	}
	return st, st, nil
}

// withSession runs fn with an open session and closes it afterwards.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(s)
}
