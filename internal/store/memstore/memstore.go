// Package memstore is an in-process store.Backend keeping every table in
// memory. It is used by tests and by `storefront serve --driver memory`.
//
// Rows are keyed like their SQL counterparts: inserting a row whose key or
// unique column already exists fails with shop.ErrDuplicateKey. Foreign keys
// are not enforced; the repository facade checks parents itself.
//
// InTx runs fn against a snapshot of every table and publishes the snapshot
// only if fn succeeds. Other callers block until the transaction finishes, so
// fn must use the Backend it is given and never the outer Store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

var (
	_ store.Backend    = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

type table []store.Record

// Store is a map-backed store.Backend and store.Transactor.
type Store struct {
	mu     sync.RWMutex
	tables map[string]table
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]table)}
}

// Select returns copies of the rows of t matching every filter, ordered by t.Key.
func (s *Store) Select(ctx context.Context, t store.Table, filters ...store.Filter) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkFilters(t, filters); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.Name, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := []store.Record{}
	for _, row := range s.tables[t.Name] {
		if matches(row, filters) {
			recs = append(recs, cloneRecord(row))
		}
	}
	sortByKey(t, recs)
	return recs, nil
}

// Insert adds rec as a new row of t. Every column of t must be present.
func (s *Store) Insert(ctx context.Context, t store.Table, rec store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := make(store.Record, len(t.Columns))
	for _, col := range t.Columns {
		v, ok := rec[col]
		if !ok {
			return fmt.Errorf("insert %s: missing column %q", t.Name, col)
		}
		row[col] = normalize(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[t.Name]
	if col, ok := conflicts(t, rows, row, -1); ok {
		return fmt.Errorf("insert %s: %w: %s", t.Name, shop.ErrDuplicateKey, col)
	}
	s.tables[t.Name] = append(rows, row)
	return nil
}

// Update sets the columns in set on every row matching filters. No row is
// changed if the result would violate a key or unique column.
func (s *Store) Update(ctx context.Context, t store.Table, set store.Record, filters ...store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("update %s: no columns to set", t.Name)
	}
	for col := range set {
		if !t.HasColumn(col) {
			return 0, fmt.Errorf("update %s: unknown column %q", t.Name, col)
		}
	}
	if err := checkFilters(t, filters); err != nil {
		return 0, fmt.Errorf("update %s: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[t.Name]
	next := make(table, len(rows))
	var n int64
	for i, row := range rows {
		if !matches(row, filters) {
			next[i] = row
			continue
		}
		updated := cloneRecord(row)
		for col, v := range set {
			updated[col] = normalize(v)
		}
		next[i] = updated
		n++
	}

	for i, row := range next {
		if col, ok := conflicts(t, next, row, i); ok {
			return 0, fmt.Errorf("update %s: %w: %s", t.Name, shop.ErrDuplicateKey, col)
		}
	}

	s.tables[t.Name] = next
	return n, nil
}

// Delete removes every row of t matching filters.
func (s *Store) Delete(ctx context.Context, t store.Table, filters ...store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkFilters(t, filters); err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[t.Name]
	kept := make(table, 0, len(rows))
	for _, row := range rows {
		if !matches(row, filters) {
			kept = append(kept, row)
		}
	}
	n := int64(len(rows) - len(kept))
	s.tables[t.Name] = kept
	return n, nil
}

// InTx runs fn against a private copy of the store and commits the copy when
// fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(b store.Backend) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{tables: make(map[string]table, len(s.tables))}
	for name, rows := range s.tables {
		tx.tables[name] = append(table(nil), rows...)
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.tables = tx.tables
	return nil
}

// Len returns the number of rows in t.
func (s *Store) Len(t store.Table) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[t.Name])
}

func checkFilters(t store.Table, filters []store.Filter) error {
	for _, f := range filters {
		if !t.HasColumn(f.Column) {
			return fmt.Errorf("unknown column %q", f.Column)
		}
	}
	return nil
}

func matches(row store.Record, filters []store.Filter) bool {
	for _, f := range filters {
		v := cmpValue(row[f.Column])
		found := false
		for _, want := range f.Values {
			if cmpValue(normalize(want)) == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// conflicts reports the first key or unique constraint row violates against
// rows, skipping the row at index self.
func conflicts(t store.Table, rows table, row store.Record, self int) (string, bool) {
	key := keyOf(t.Key, row)
	for i, other := range rows {
		if i == self {
			continue
		}
		if keyOf(t.Key, other) == key {
			return strings.Join(t.Key, ", "), true
		}
		for _, col := range t.Unique {
			if cmpValue(other[col]) == cmpValue(row[col]) {
				return col, true
			}
		}
	}
	return "", false
}

func keyOf(cols []string, row store.Record) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%v", cmpValue(row[col]))
	}
	return strings.Join(parts, "\x00")
}

func sortByKey(t store.Table, recs []store.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, col := range t.Key {
			if c := compare(recs[i][col], recs[j][col]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compare(a, b any) int {
	x, y := cmpValue(a), cmpValue(b)
	switch xv := x.(type) {
	case int64:
		if yv, ok := y.(int64); ok {
			switch {
			case xv < yv:
				return -1
			case xv > yv:
				return 1
			}
			return 0
		}
	case string:
		if yv, ok := y.(string); ok {
			return strings.Compare(xv, yv)
		}
	}
	return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

// normalize converts a value to the representation a SQL driver would hand
// back: integers widen to int64, byte slices become strings, decimals are
// stored as their string form and times as UTC.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint32:
		return int64(x)
	case uint16:
		return int64(x)
	case uint8:
		return int64(x)
	case []byte:
		return string(x)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

// cmpValue maps a normalized value to one usable with ==.
func cmpValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixNano()
	}
	return v
}

func cloneRecord(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
