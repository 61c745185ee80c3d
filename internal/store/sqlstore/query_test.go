package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

func seedStore(t *testing.T, s *Store, id int) {
	t.Helper()
	err := s.Insert(context.Background(), store.Stores, store.StoreRecord(shop.Store{
		ID: id, Name: "Branch", Address: "1 Main St", City: "Austin", State: "TX",
	}))
	require.NoError(t, err)
}

func TestInsertSelect_Store(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := shop.Store{ID: 1, Name: "Pacific Branch", Address: "12 Harbor Way", City: "San Diego", State: "CA"}
	require.NoError(t, s.Insert(ctx, store.Stores, store.StoreRecord(want)))

	recs, err := s.Select(ctx, store.Stores, store.Eq("id", 1))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	got, err := store.StoreFromRecord(recs[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSelect_EmptyIsNonNil(t *testing.T) {
	s := createTestStore(t)

	recs, err := s.Select(context.Background(), store.Products)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestSelect_OrderedByKey(t *testing.T) {
	s := createTestStore(t)
	for _, id := range []int{3, 1, 2} {
		seedStore(t, s, id)
	}

	recs, err := s.Select(context.Background(), store.Stores)
	require.NoError(t, err)

	stores, err := store.MapAll(recs, store.StoreFromRecord)
	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, 1, stores[0].ID)
	assert.Equal(t, 2, stores[1].ID)
	assert.Equal(t, 3, stores[2].ID)
}

func TestSelect_InFilter(t *testing.T) {
	s := createTestStore(t)
	for _, id := range []int{1, 2, 3, 4} {
		seedStore(t, s, id)
	}
	ctx := context.Background()

	recs, err := s.Select(ctx, store.Stores, store.InInts("id", []int{2, 4}))
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = s.Select(ctx, store.Stores, store.In("id"))
	require.NoError(t, err)
	assert.Empty(t, recs, "empty IN matches nothing")
}

func TestSelect_UnknownColumn(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Select(context.Background(), store.Stores, store.Eq("name; DROP TABLE stores", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")
}

func TestInsert_DuplicateKey(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s, 1)

	err := s.Insert(context.Background(), store.Stores, store.StoreRecord(shop.Store{ID: 1, Name: "again"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shop.ErrDuplicateKey), "err = %v", err)
}

func TestInsert_DuplicateUniqueColumn(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, store.Users, store.UserRecord(shop.User{ID: 1, Username: "ana", PasswordHash: "h"})))
	err := s.Insert(ctx, store.Users, store.UserRecord(shop.User{ID: 2, Username: "ana", PasswordHash: "h"}))
	assert.True(t, errors.Is(err, shop.ErrDuplicateKey), "err = %v", err)
}

func TestInsert_MissingColumn(t *testing.T) {
	s := createTestStore(t)

	err := s.Insert(context.Background(), store.Stores, store.Record{"id": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestInsert_ForeignKeyEnforced(t *testing.T) {
	s := createTestStore(t)

	err := s.Insert(context.Background(), store.Products, store.ProductRecord(shop.Product{
		ID: 1, StoreID: 42, Name: "orphan", Price: decimal.NewFromInt(1), Quantity: 1,
	}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, shop.ErrDuplicateKey))
}

func TestProductKeyIsScopedToStore(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s, 1)
	seedStore(t, s, 2)
	ctx := context.Background()

	for _, storeID := range []int{1, 2} {
		err := s.Insert(ctx, store.Products, store.ProductRecord(shop.Product{
			ID: 1, StoreID: storeID, Name: "Widget", Price: decimal.RequireFromString("1.50"), Quantity: 3,
		}))
		require.NoError(t, err, "store %d", storeID)
	}

	recs, err := s.Select(ctx, store.Products, store.Eq("id", 1))
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestStoreOrderRoundTrip(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s, 1)
	ctx := context.Background()

	when := time.Date(2022, 3, 14, 9, 26, 53, 0, time.UTC)
	want := shop.StoreOrder{
		ID:          10,
		UserID:      3,
		UserName:    "bob",
		ReferenceID: "0190c5a4-0000-7000-8000-000000000001",
		StoreID:     1,
		CurrDate:    when,
		DateSeconds: when.Unix(),
		TotalAmount: decimal.RequireFromString("1799.98"),
	}
	require.NoError(t, s.Insert(ctx, store.StoreOrders, store.StoreOrderRecord(want)))

	recs, err := s.Select(ctx, store.StoreOrders, store.Eq("store_id", 1))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	got, err := store.StoreOrderFromRecord(recs[0])
	require.NoError(t, err)
	assert.True(t, when.Equal(got.CurrDate), "curr_date = %v", got.CurrDate)
	assert.Equal(t, "1799.98", got.TotalAmount.String())
	got.CurrDate = want.CurrDate
	got.TotalAmount = want.TotalAmount
	assert.Equal(t, want, got)
}

func TestUpdate(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s, 1)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, store.Products, store.ProductRecord(shop.Product{
		ID: 1, StoreID: 1, Name: "Widget", Description: "old", Price: decimal.NewFromInt(1), Quantity: 1,
	})))

	n, err := s.Update(ctx, store.Products, store.Record{
		"description": "new",
		"price":       "2.25",
		"quantity":    7,
	}, store.Eq("store_id", 1), store.Eq("id", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := s.Select(ctx, store.Products, store.Eq("store_id", 1))
	require.NoError(t, err)
	p, err := store.ProductFromRecord(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, "new", p.Description)
	assert.Equal(t, "2.25", p.Price.String())
	assert.Equal(t, 7, p.Quantity)
}

func TestUpdate_NoMatch(t *testing.T) {
	s := createTestStore(t)

	n, err := s.Update(context.Background(), store.Stores, store.Record{"name": "x"}, store.Eq("id", 99))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdate_RejectsUnknownColumn(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Update(context.Background(), store.Stores, store.Record{"bogus": 1})
	require.Error(t, err)

	_, err = s.Update(context.Background(), store.Stores, store.Record{})
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	for _, id := range []int{1, 2, 3} {
		seedStore(t, s, id)
	}
	ctx := context.Background()

	n, err := s.Delete(ctx, store.Stores, store.In("id", 1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recs, err := s.Select(ctx, store.Stores)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(b store.Backend) error {
		return b.Insert(ctx, store.Stores, store.StoreRecord(shop.Store{ID: 1, Name: "tx"}))
	})
	require.NoError(t, err)

	recs, err := s.Select(ctx, store.Stores)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s, 1)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(b store.Backend) error {
		if _, err := b.Delete(ctx, store.Stores, store.Eq("id", 1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	recs, err := s.Select(ctx, store.Stores)
	require.NoError(t, err)
	assert.Len(t, recs, 1, "delete must be rolled back")
}

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE a = ? AND b IN (?, ?)"

	assert.Equal(t, query, dialects[DriverSQLite].rebind(query))
	assert.Equal(t, query, dialects[DriverMySQL].rebind(query))
	assert.Equal(t,
		"SELECT a FROM t WHERE a = $1 AND b IN ($2, $3)",
		dialects[DriverPostgres].rebind(query))
}

func TestBuildWhere(t *testing.T) {
	where, args, err := buildWhere(store.ProductOrders, []store.Filter{
		store.Eq("store_id", 1),
		store.In("store_order_id", 10, 11),
	})
	require.NoError(t, err)
	assert.Equal(t, " WHERE store_id = ? AND store_order_id IN (?, ?)", where)
	assert.Equal(t, []any{1, 10, 11}, args)

	where, args, err = buildWhere(store.ProductOrders, nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Nil(t, args)
}
