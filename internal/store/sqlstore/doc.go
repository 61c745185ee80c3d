// Package sqlstore implements store.Backend on database/sql.
//
// Three dialects are supported:
//
//   - sqlite3 (github.com/mattn/go-sqlite3), the default
//   - postgres (github.com/jackc/pgx/v5/stdlib)
//   - mysql (github.com/go-sql-driver/mysql)
//
// Every dialect shares the embedded schema.sql; only the timestamp column type
// and the placeholder style differ.
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - a single open connection, so transactions serialize writers
//
// Foreign keys are declared for products, store_orders and the
// (store_id, product_id) reference of product_orders. A product order's
// store_order_id is not constrained because zero marks a cart line.
//
// Duplicate keys are reported as shop.ErrDuplicateKey regardless of driver.
package sqlstore
