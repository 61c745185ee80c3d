package repo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/store/memstore"
	"github.com/roach88/storefront/internal/store/sqlstore"
	"github.com/roach88/storefront/internal/testutil"
)

// backendFactories builds a fresh backend of every kind.
var backendFactories = map[string]func(t *testing.T) store.Backend{
	"sqlite": func(t *testing.T) store.Backend {
		s, err := sqlstore.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	},
	"memory": func(t *testing.T) store.Backend {
		return memstore.New()
	},
}

// forEachBackend runs fn once per backend kind as a subtest.
func forEachBackend(t *testing.T, fn func(t *testing.T, b store.Backend)) {
	for name, factory := range backendFactories {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(b store.Backend, opts ...Option) *Repository {
	base := []Option{
		WithLogger(quietLogger()),
		WithClock(testutil.NewClock()),
		WithReferenceGenerator(testutil.NewSequenceGenerator("ref")),
		WithPasswordCost(bcrypt.MinCost),
	}
	return New(b, append(base, opts...)...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture seeds two stores with products, a user, and the example order
// graph: StoreOrder 10 of store 1 holding ProductOrder 100.
type fixture struct {
	repo *Repository
	b    store.Backend
}

func newFixture(t *testing.T, b store.Backend, opts ...Option) fixture {
	t.Helper()
	ctx := context.Background()
	r := newTestRepo(b, opts...)

	require.NoError(t, r.AddStore(ctx, shop.Store{ID: 1, Name: "Downtown", Address: "1 Main St", City: "Austin", State: "TX"}))
	require.NoError(t, r.AddStore(ctx, shop.Store{ID: 2, Name: "Uptown", Address: "9 North Ave", City: "Austin", State: "TX"}))
	require.NoError(t, r.AddProduct(ctx, 1, shop.Product{ID: 1, Name: "Laptop", Description: "14 inch", Price: dec("899.99"), Quantity: 5}))
	require.NoError(t, r.AddProduct(ctx, 1, shop.Product{ID: 2, Name: "Mouse", Description: "wireless", Price: dec("19.50"), Quantity: 20}))
	require.NoError(t, r.AddProduct(ctx, 2, shop.Product{ID: 1, Name: "Desk", Description: "oak", Price: dec("250"), Quantity: 2}))

	_, err := r.AddUser(ctx, "ana", "secret")
	require.NoError(t, err)

	_, err = r.AddStoreOrder(ctx, 1, shop.StoreOrder{
		ID: 10, UserID: 1, UserName: "ana", ReferenceID: "ref-seed", TotalAmount: dec("1799.98"),
	})
	require.NoError(t, err)
	require.NoError(t, b.Insert(ctx, store.ProductOrders, store.ProductOrderRecord(shop.ProductOrder{
		ID: 100, UserID: 1, StoreID: 1, StoreOrderID: 10, UserOrderID: 1,
		ProductID: 1, ItemName: "Laptop", TotalPrice: dec("1799.98"), Quantity: 2,
	})))

	return fixture{repo: r, b: b}
}

func (f fixture) count(t *testing.T, table store.Table, filters ...store.Filter) int {
	t.Helper()
	recs, err := f.b.Select(context.Background(), table, filters...)
	require.NoError(t, err)
	return len(recs)
}
