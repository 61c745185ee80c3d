package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// dialect captures the per-database differences the store cares about.
type dialect struct {
	name string
	// driver is the database/sql driver name.
	driver string
	// numbered placeholders ($1, $2, ...) instead of ?.
	numbered      bool
	timestampType string
	// indexIfNotExists is false for MySQL, which lacks CREATE INDEX IF NOT EXISTS.
	indexIfNotExists bool
}

// Supported driver names, as used in configuration.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var dialects = map[string]dialect{
	DriverSQLite: {
		name:             DriverSQLite,
		driver:           "sqlite3",
		timestampType:    "TIMESTAMP",
		indexIfNotExists: true,
	},
	DriverPostgres: {
		name:             DriverPostgres,
		driver:           "pgx",
		numbered:         true,
		timestampType:    "TIMESTAMP",
		indexIfNotExists: true,
	},
	DriverMySQL: {
		name:          DriverMySQL,
		driver:        "mysql",
		timestampType: "DATETIME(6)",
	},
}

// Drivers returns the supported driver names.
func Drivers() []string {
	return []string{DriverSQLite, DriverPostgres, DriverMySQL}
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q: must be one of %v", name, Drivers())
	}
	return d, nil
}

// rebind rewrites ? placeholders to $n for dialects that need it.
// Queries are built internally and never contain literal question marks.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// schemaStatements returns the embedded schema split into single statements.
// MySQL rejects multi-statement Exec by default, so every dialect runs them
// one at a time.
func (d dialect) schemaStatements() []string {
	ddl := strings.ReplaceAll(schemaSQL, "{{TIMESTAMP}}", d.timestampType)
	var stmts []string
	for _, part := range strings.Split(ddl, ";") {
		if stmt := stripComments(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func stripComments(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
