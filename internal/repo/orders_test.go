package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/store/memstore"
	"github.com/roach88/storefront/internal/testutil"
)

func TestAddStoreOrder_Defaults(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b store.Backend) {
		f := newFixture(t, b)
		ctx := context.Background()

		so, err := f.repo.AddStoreOrder(ctx, 2, shop.StoreOrder{
			StoreID:       99,
			UserID:        1,
			UserName:      "ana",
			TotalAmount:   dec("12.34"),
			ProductOrders: []shop.ProductOrder{{ID: 555}},
		})
		require.NoError(t, err)
		assert.Equal(t, 11, so.ID)
		assert.Equal(t, 2, so.StoreID)
		assert.Equal(t, "ref-0001", so.ReferenceID)
		assert.Equal(t, testutil.Epoch, so.CurrDate)
		assert.Equal(t, testutil.Epoch.Unix(), so.DateSeconds)
		assert.Empty(t, so.ProductOrders)

		// Product orders on the argument are not written.
		_, err = f.repo.GetProductOrder(ctx, 555)
		assert.ErrorIs(t, err, shop.ErrNotFound)

		st, err := f.repo.GetStoreByID(ctx, 2)
		require.NoError(t, err)
		require.Len(t, st.StoreOrders, 1)
		got := st.StoreOrders[0]
		assert.Equal(t, so.ReferenceID, got.ReferenceID)
		assert.True(t, so.CurrDate.Equal(got.CurrDate))
		assert.True(t, so.TotalAmount.Equal(got.TotalAmount))
	})
}

func TestAddStoreOrder_Errors(t *testing.T) {
	f := newFixture(t, memstore.New())
	ctx := context.Background()

	_, err := f.repo.AddStoreOrder(ctx, 9, shop.StoreOrder{})
	assert.ErrorIs(t, err, shop.ErrNotFound)

	_, err = f.repo.AddStoreOrder(ctx, 1, shop.StoreOrder{ID: 10, ReferenceID: "x"})
	assert.ErrorIs(t, err, shop.ErrDuplicateKey)

	_, err = f.repo.AddStoreOrder(ctx, 1, shop.StoreOrder{TotalAmount: dec("-1")})
	assert.ErrorIs(t, err, shop.ErrInvalid)
}

func TestParseOrderSort(t *testing.T) {
	tests := []struct {
		in   string
		want OrderSort
	}{
		{"", SortNewest},
		{"newest", SortNewest},
		{" Oldest ", SortOldest},
		{"HIGHEST", SortHighest},
		{"lowest", SortLowest},
	}
	for _, tt := range tests {
		got, err := ParseOrderSort(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseOrderSort("cheapest")
	assert.ErrorIs(t, err, shop.ErrInvalid)
}

func TestGetStoreOrders_Sorted(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b store.Backend) {
		clock := testutil.NewClock()
		f := newFixture(t, b, WithClock(clock))
		ctx := context.Background()

		// Order 10 (seed) at Epoch for 1799.98, then two checkouts.
		clock.Advance(time.Hour)
		_, err := f.repo.AddProductOrder(ctx, "ana", 1, 2, 1)
		require.NoError(t, err)
		_, err = f.repo.Checkout(ctx, "ana")
		require.NoError(t, err)

		clock.Advance(time.Hour)
		_, err = f.repo.AddProductOrder(ctx, "ana", 2, 1, 1)
		require.NoError(t, err)
		_, err = f.repo.Checkout(ctx, "ana")
		require.NoError(t, err)

		tests := []struct {
			by   OrderSort
			want []int
		}{
			{SortNewest, []int{12, 11, 10}},
			{SortOldest, []int{10, 11, 12}},
			{SortHighest, []int{10, 12, 11}},
			{SortLowest, []int{11, 12, 10}},
		}
		for _, tt := range tests {
			t.Run(string(tt.by), func(t *testing.T) {
				orders, err := f.repo.GetStoreOrders(ctx, "ana", tt.by)
				require.NoError(t, err)
				ids := make([]int, len(orders))
				for i, so := range orders {
					ids[i] = so.ID
				}
				assert.Equal(t, tt.want, ids)
			})
		}

		orders, err := f.repo.GetStoreOrders(ctx, "ana", SortOldest)
		require.NoError(t, err)
		require.Len(t, orders[0].ProductOrders, 1)
		assert.Equal(t, 100, orders[0].ProductOrders[0].ID)
	})
}

func TestGetStoreOrdersForStore(t *testing.T) {
	f := newFixture(t, memstore.New())
	ctx := context.Background()

	orders, err := f.repo.GetStoreOrdersForStore(ctx, 1, SortNewest)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].ProductOrders, 1)

	orders, err = f.repo.GetStoreOrdersForStore(ctx, 2, SortNewest)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.repo.GetStoreOrdersForStore(ctx, 9, SortNewest)
	assert.ErrorIs(t, err, shop.ErrNotFound)
}

func TestGetStoreOrders_UnknownUser(t *testing.T) {
	_, err := newTestRepo(memstore.New()).GetStoreOrders(context.Background(), "ghost", SortNewest)
	assert.ErrorIs(t, err, shop.ErrNotFound)
}
