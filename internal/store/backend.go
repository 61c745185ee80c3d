package store

import "context"

// Backend is the row-level capability the repository facade is built on.
//
// Insert returns an error matching shop.ErrDuplicateKey when the key or a
// unique column already exists. Update and Delete return the number of rows
// affected.
type Backend interface {
	Select(ctx context.Context, t Table, filters ...Filter) ([]Record, error)
	Insert(ctx context.Context, t Table, rec Record) error
	Update(ctx context.Context, t Table, set Record, filters ...Filter) (int64, error)
	Delete(ctx context.Context, t Table, filters ...Filter) (int64, error)
}

// Transactor is implemented by backends that can apply several operations
// atomically. fn receives a Backend bound to the transaction; if fn returns an
// error every change it made is discarded.
type Transactor interface {
	InTx(ctx context.Context, fn func(Backend) error) error
}

// Filter restricts a statement to rows whose Column equals one of Values.
// A filter with no values matches nothing.
type Filter struct {
	Column string
	Values []any
}

// Eq matches rows where column equals v.
func Eq(column string, v any) Filter {
	return Filter{Column: column, Values: []any{v}}
}

// In matches rows where column equals any of vs.
func In(column string, vs ...any) Filter {
	return Filter{Column: column, Values: vs}
}

// InInts is In for a slice of ints.
func InInts(column string, ids []int) Filter {
	vs := make([]any, len(ids))
	for i, id := range ids {
		vs[i] = id
	}
	return Filter{Column: column, Values: vs}
}
