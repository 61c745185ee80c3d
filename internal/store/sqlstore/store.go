package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/roach88/storefront/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking (SQLite user_version):
// 0 - Initial schema
// 1 - Added indexes on foreign key columns
const currentSchemaVersion = 1

// indexes are created by the v1 migration on dialects that support
// CREATE INDEX IF NOT EXISTS.
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_store_orders_store ON store_orders (store_id)",
	"CREATE INDEX IF NOT EXISTS idx_store_orders_user ON store_orders (user_id)",
	"CREATE INDEX IF NOT EXISTS idx_product_orders_store_order ON product_orders (store_order_id)",
	"CREATE INDEX IF NOT EXISTS idx_product_orders_product ON product_orders (store_id, product_id)",
	"CREATE INDEX IF NOT EXISTS idx_product_orders_user ON product_orders (user_id)",
}

// Config selects the database to open.
type Config struct {
	// Driver is one of DriverSQLite, DriverPostgres, DriverMySQL.
	// Default: DriverSQLite
	Driver string

	// DSN is the driver-specific data source. For SQLite it is a file path.
	DSN string
}

// Store is a store.Backend and store.Transactor over database/sql.
type Store struct {
	conn
	db *sql.DB
}

// Open connects to the configured database and applies the schema.
//
// For SQLite the database file is created if missing and configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.name == DriverSQLite {
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if err := applySchema(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{conn: conn{q: db, d: d}, db: db}, nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(path string) (*Store, error) {
	return Open(Config{Driver: DriverSQLite, DSN: path})
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the Backend methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SchemaVersion returns the schema version applied by Open.
func (s *Store) SchemaVersion() int {
	return currentSchemaVersion
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.d.name
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB, d dialect) error {
	for _, stmt := range d.schemaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if err := runMigrations(db, d); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental migrations. SQLite tracks progress in
// user_version; the other dialects rerun the idempotent steps.
func runMigrations(db *sql.DB, d dialect) error {
	if d.name != DriverSQLite {
		return migrateToV1(db, d)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db, d); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds indexes on the foreign key columns used by cascades and
// order listings.
func migrateToV1(db *sql.DB, d dialect) error {
	if !d.indexIfNotExists {
		return nil
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a transaction. The transaction is rolled back if fn
// returns an error or panics, and committed otherwise.
func (s *Store) InTx(ctx context.Context, fn func(b store.Backend) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&conn{q: tx, d: s.d}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
