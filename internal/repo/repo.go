// Package repo is the storefront repository facade.
//
// A Repository turns store.Backend row primitives into the shop operations
// the HTTP API and CLI call: store and product administration, order
// creation, user accounts, carts, and checkout. Reads return assembled
// aggregates (see shop.Assemble).
//
// Writes touching several tables run in a single backend transaction when the
// backend implements store.Transactor. Cascading deletes on a backend without
// transactions are applied step by step, and a failure partway through is
// reported as a *shop.CascadeError matching shop.ErrPartialCascade.
//
// Multi-statement writes on one store are serialized through a per-store lock,
// so a product cannot be added to a store that is concurrently being deleted.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// Clock supplies the timestamp of new store orders.
type Clock interface {
	Now() time.Time
}

// Generator supplies reference ids for new store orders.
type Generator interface {
	Generate() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// UUIDv7Generator generates time-sortable UUIDv7 order references.
//
// UUIDv7 embeds a timestamp in the most significant bits, so references sort
// by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7. Panics if the system random
// source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Repository implements the storefront operations over a store.Backend.
// It is safe for concurrent use.
type Repository struct {
	backend store.Backend
	logger  *slog.Logger
	clock   Clock
	refs    Generator
	cost    int
	locks   *keyedMutex
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the clock used to stamp new store orders.
func WithClock(c Clock) Option {
	return func(r *Repository) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithReferenceGenerator sets the generator for store order reference ids.
// Default: UUIDv7Generator.
func WithReferenceGenerator(g Generator) Option {
	return func(r *Repository) {
		if g != nil {
			r.refs = g
		}
	}
}

// WithPasswordCost sets the bcrypt cost for new password hashes.
// Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(r *Repository) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			r.cost = cost
		}
	}
}

// New creates a Repository over backend.
func New(backend store.Backend, opts ...Option) *Repository {
	r := &Repository{
		backend: backend,
		logger:  slog.Default(),
		clock:   systemClock{},
		refs:    UUIDv7Generator{},
		cost:    bcrypt.DefaultCost,
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transactional reports whether multi-step writes are atomic.
func (r *Repository) Transactional() bool {
	_, ok := r.backend.(store.Transactor)
	return ok
}

// atomically runs fn in a transaction when the backend supports one, and
// directly against the backend otherwise.
func (r *Repository) atomically(ctx context.Context, fn func(b store.Backend) error) error {
	if tx, ok := r.backend.(store.Transactor); ok {
		return tx.InTx(ctx, fn)
	}
	return fn(r.backend)
}

// selectOne returns the only row of t matching filters, or shop.ErrNotFound.
func selectOne[T any](ctx context.Context, b store.Backend, t store.Table, mapFn func(store.Record) (T, error), filters ...store.Filter) (T, error) {
	var zero T
	recs, err := b.Select(ctx, t, filters...)
	if err != nil {
		return zero, err
	}
	if len(recs) == 0 {
		return zero, notFound(t)
	}
	return mapFn(recs[0])
}

// selectAll returns every row of t matching filters, mapped.
func selectAll[T any](ctx context.Context, b store.Backend, t store.Table, mapFn func(store.Record) (T, error), filters ...store.Filter) ([]T, error) {
	recs, err := b.Select(ctx, t, filters...)
	if err != nil {
		return nil, err
	}
	return store.MapAll(recs, mapFn)
}

// nextID returns one more than the largest id in t, starting at 1.
func nextID(ctx context.Context, b store.Backend, t store.Table) (int, error) {
	return nextValue(ctx, b, t, "id")
}

// nextValue returns one more than the largest value of column among the rows
// of t matching filters.
func nextValue(ctx context.Context, b store.Backend, t store.Table, column string, filters ...store.Filter) (int, error) {
	recs, err := b.Select(ctx, t, filters...)
	if err != nil {
		return 0, fmt.Errorf("next %s %s: %w", t.Name, column, err)
	}
	maxID := 0
	for _, rec := range recs {
		n, err := store.IntColumn(rec, column)
		if err != nil {
			return 0, fmt.Errorf("next %s %s: %w", t.Name, column, err)
		}
		if n > maxID {
			maxID = n
		}
	}
	if maxID >= shop.MaxInt {
		return 0, invalid("no %s %s left above %d", t.Name, column, maxID)
	}
	return maxID + 1, nil
}

// fail logs err at error level and returns it unchanged.
func (r *Repository) fail(msg string, err error, attrs ...any) error {
	r.logger.Error(msg, append(attrs, "error", err)...)
	return err
}
