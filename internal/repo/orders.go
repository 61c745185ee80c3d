package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// OrderSort selects the ordering of order listings.
type OrderSort string

const (
	SortNewest  OrderSort = "newest"
	SortOldest  OrderSort = "oldest"
	SortHighest OrderSort = "highest"
	SortLowest  OrderSort = "lowest"
)

// ParseOrderSort maps a user supplied selection to an OrderSort. The empty
// string selects SortNewest.
func ParseOrderSort(s string) (OrderSort, error) {
	switch OrderSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortHighest:
		return SortHighest, nil
	case SortLowest:
		return SortLowest, nil
	default:
		return "", invalid("unknown sort %q (want newest, oldest, highest or lowest)", s)
	}
}

// AddStoreOrder records so against store storeID and returns the stored row.
//
// Only the StoreOrder row is written; so.ProductOrders is ignored. A zero ID
// takes the next free id, a zero CurrDate takes the clock reading, a zero
// DateSeconds is derived from CurrDate, and an empty ReferenceID is generated.
func (r *Repository) AddStoreOrder(ctx context.Context, storeID int, so shop.StoreOrder) (shop.StoreOrder, error) {
	so.StoreID = storeID
	so.ProductOrders = nil
	if so.ID < 0 {
		return shop.StoreOrder{}, r.fail("add store order failed", invalid("store order id must not be negative"), "store_id", storeID)
	}
	for _, v := range []struct {
		name string
		n    int
	}{{"store order id", so.ID}, {"user id", so.UserID}} {
		if err := checkRange(v.name, v.n); err != nil {
			return shop.StoreOrder{}, r.fail("add store order failed", err, "store_id", storeID)
		}
	}
	if so.TotalAmount.IsNegative() {
		return shop.StoreOrder{}, r.fail("add store order failed",
			invalid("total amount must not be negative, got %s", so.TotalAmount), "store_id", storeID)
	}
	if so.CurrDate.IsZero() {
		so.CurrDate = r.clock.Now()
	}
	so.CurrDate = so.CurrDate.UTC()
	if so.DateSeconds == 0 {
		so.DateSeconds = so.CurrDate.Unix()
	}
	if so.ReferenceID == "" {
		so.ReferenceID = r.refs.Generate()
	}

	unlock := r.locks.Lock(storeID)
	defer unlock()

	err := r.atomically(ctx, func(b store.Backend) error {
		if _, err := selectOne(ctx, b, store.Stores, store.StoreFromRecord, store.Eq("id", storeID)); err != nil {
			return err
		}
		if so.ID == 0 {
			id, err := nextID(ctx, b, store.StoreOrders)
			if err != nil {
				return err
			}
			so.ID = id
		}
		return b.Insert(ctx, store.StoreOrders, store.StoreOrderRecord(so))
	})
	if err != nil {
		return shop.StoreOrder{}, r.fail("add store order failed",
			fmt.Errorf("add store order to store %d: %w", storeID, err), "store_id", storeID, "store_order_id", so.ID)
	}

	r.logger.Info("store order added",
		"store_id", storeID,
		"store_order_id", so.ID,
		"reference_id", so.ReferenceID,
		"user_id", so.UserID,
		"total_amount", so.TotalAmount.String(),
	)
	so.ProductOrders = []shop.ProductOrder{}
	return so, nil
}

// GetStoreOrders returns the checked-out orders of username with their
// product orders attached.
func (r *Repository) GetStoreOrders(ctx context.Context, username string, by OrderSort) ([]shop.StoreOrder, error) {
	username = NormalizeUsername(username)
	var orders []shop.StoreOrder
	err := r.atomically(ctx, func(b store.Backend) error {
		u, err := getUser(ctx, b, username)
		if err != nil {
			return err
		}
		orders, err = loadOrders(ctx, b, store.Eq("user_id", u.ID))
		return err
	})
	if err != nil {
		return nil, r.fail("get store orders failed", fmt.Errorf("get orders of %q: %w", username, err), "username", username)
	}
	sortOrders(orders, by)
	return orders, nil
}

// GetStoreOrdersForStore returns the orders placed with store storeID.
func (r *Repository) GetStoreOrdersForStore(ctx context.Context, storeID int, by OrderSort) ([]shop.StoreOrder, error) {
	var orders []shop.StoreOrder
	err := r.atomically(ctx, func(b store.Backend) error {
		if _, err := selectOne(ctx, b, store.Stores, store.StoreFromRecord, store.Eq("id", storeID)); err != nil {
			return err
		}
		var err error
		orders, err = loadOrders(ctx, b, store.Eq("store_id", storeID))
		return err
	})
	if err != nil {
		return nil, r.fail("get store orders failed", fmt.Errorf("get orders of store %d: %w", storeID, err), "store_id", storeID)
	}
	sortOrders(orders, by)
	return orders, nil
}

func loadOrders(ctx context.Context, b store.Backend, filter store.Filter) ([]shop.StoreOrder, error) {
	orders, err := selectAll(ctx, b, store.StoreOrders, store.StoreOrderFromRecord, filter)
	if err != nil {
		return nil, err
	}
	lines, err := committedLines(ctx, b, orders)
	if err != nil {
		return nil, err
	}
	return shop.AttachLines(orders, lines), nil
}

// sortOrders orders in place. Ties fall back to the store order id so the
// result is stable across backends.
func sortOrders(orders []shop.StoreOrder, by OrderSort) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		switch by {
		case SortOldest:
			if a.DateSeconds != b.DateSeconds {
				return a.DateSeconds < b.DateSeconds
			}
			return a.ID < b.ID
		case SortHighest:
			if c := a.TotalAmount.Cmp(b.TotalAmount); c != 0 {
				return c > 0
			}
			return a.ID < b.ID
		case SortLowest:
			if c := a.TotalAmount.Cmp(b.TotalAmount); c != 0 {
				return c < 0
			}
			return a.ID < b.ID
		default:
			if a.DateSeconds != b.DateSeconds {
				return a.DateSeconds > b.DateSeconds
			}
			return a.ID > b.ID
		}
	})
}
