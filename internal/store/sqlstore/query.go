package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

var (
	_ store.Backend    = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
	_ store.Backend    = (*conn)(nil)
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// conn runs the Backend statements against a database or a transaction.
type conn struct {
	q querier
	d dialect
}

// Select returns the rows of t matching every filter, ordered by t.Key ASC.
// Returns an empty slice (not nil) when nothing matches.
func (c *conn) Select(ctx context.Context, t store.Table, filters ...store.Filter) ([]store.Record, error) {
	where, args, err := buildWhere(t, filters)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.Name, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(t.Columns, ", "), t.Name, where, strings.Join(t.Key, ", "))

	rows, err := c.q.QueryContext(ctx, c.d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.Name, err)
	}
	defer rows.Close()

	recs := []store.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows, t.Columns)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.Name, err)
	}

	return recs, nil
}

// Insert adds rec as a new row of t. Every column of t must be present.
func (c *conn) Insert(ctx context.Context, t store.Table, rec store.Record) error {
	args := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		v, ok := rec[col]
		if !ok {
			return fmt.Errorf("insert %s: missing column %q", t.Name, col)
		}
		args[i] = v
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(t.Columns, ", "), placeholders(len(t.Columns)))

	if _, err := c.q.ExecContext(ctx, c.d.rebind(query), args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert %s: %w: %v", t.Name, shop.ErrDuplicateKey, err)
		}
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return nil
}

// Update sets the columns in set on every row matching filters.
func (c *conn) Update(ctx context.Context, t store.Table, set store.Record, filters ...store.Filter) (int64, error) {
	if len(set) == 0 {
		return 0, fmt.Errorf("update %s: no columns to set", t.Name)
	}

	cols := make([]string, 0, len(set))
	for col := range set {
		if !t.HasColumn(col) {
			return 0, fmt.Errorf("update %s: unknown column %q", t.Name, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		assignments[i] = col + " = ?"
		args = append(args, set[col])
	}

	where, whereArgs, err := buildWhere(t, filters)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", t.Name, err)
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", t.Name, strings.Join(assignments, ", "), where)
	return c.exec(ctx, "update", t, query, args)
}

// Delete removes every row of t matching filters.
func (c *conn) Delete(ctx context.Context, t store.Table, filters ...store.Filter) (int64, error) {
	where, args, err := buildWhere(t, filters)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Name, err)
	}

	query := fmt.Sprintf("DELETE FROM %s%s", t.Name, where)
	return c.exec(ctx, "delete", t, query, args)
}

func (c *conn) exec(ctx context.Context, verb string, t store.Table, query string, args []any) (int64, error) {
	result, err := c.q.ExecContext(ctx, c.d.rebind(query), args...)
	if err != nil {
		if isDuplicate(err) {
			return 0, fmt.Errorf("%s %s: %w: %v", verb, t.Name, shop.ErrDuplicateKey, err)
		}
		return 0, fmt.Errorf("%s %s: %w", verb, t.Name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s %s: rows affected: %w", verb, t.Name, err)
	}
	return n, nil
}

// buildWhere renders filters as a WHERE clause. Column names are checked
// against the table so only known identifiers reach the query text.
func buildWhere(t store.Table, filters []store.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		if !t.HasColumn(f.Column) {
			return "", nil, fmt.Errorf("unknown column %q", f.Column)
		}
		switch len(f.Values) {
		case 0:
			clauses = append(clauses, "1 = 0")
		case 1:
			clauses = append(clauses, f.Column+" = ?")
		default:
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", f.Column, placeholders(len(f.Values))))
		}
		args = append(args, f.Values...)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// scanRecord scans the current row into a Record keyed by columns.
func scanRecord(rows *sql.Rows, columns []string) (store.Record, error) {
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	rec := make(store.Record, len(columns))
	for i, col := range columns {
		rec[col] = values[i]
	}
	return rec, nil
}

// isDuplicate reports whether err is a primary key or unique violation in any
// of the supported drivers.
func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}

	return false
}
