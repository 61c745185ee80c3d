package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// AddStore inserts st. Any Products or StoreOrders on st are ignored.
// Returns an error matching shop.ErrDuplicateKey if the id is taken.
func (r *Repository) AddStore(ctx context.Context, st shop.Store) error {
	if st.ID <= 0 {
		return r.fail("add store failed", invalid("store id must be positive, got %d", st.ID), "store_id", st.ID)
	}
	if err := checkRange("store id", st.ID); err != nil {
		return r.fail("add store failed", err, "store_id", st.ID)
	}
	if strings.TrimSpace(st.Name) == "" {
		return r.fail("add store failed", invalid("store name is required"), "store_id", st.ID)
	}

	if err := r.backend.Insert(ctx, store.Stores, store.StoreRecord(st)); err != nil {
		return r.fail("add store failed", fmt.Errorf("add store %d: %w", st.ID, err), "store_id", st.ID)
	}

	r.logger.Info("store added",
		"store_id", st.ID,
		"name", st.Name,
		"city", st.City,
		"state", st.State,
	)
	return nil
}

// GetAllStores returns every store with its products, store orders, and
// their product orders attached.
func (r *Repository) GetAllStores(ctx context.Context) ([]shop.Store, error) {
	var stores []shop.Store
	err := r.atomically(ctx, func(b store.Backend) error {
		var err error
		stores, err = loadStores(ctx, b, nil)
		return err
	})
	if err != nil {
		return nil, r.fail("get stores failed", fmt.Errorf("get stores: %w", err))
	}
	return stores, nil
}

// GetStoreByID returns the assembled store id, or an error matching
// shop.ErrNotFound.
func (r *Repository) GetStoreByID(ctx context.Context, id int) (shop.Store, error) {
	var stores []shop.Store
	err := r.atomically(ctx, func(b store.Backend) error {
		var err error
		stores, err = loadStores(ctx, b, &id)
		return err
	})
	if err != nil {
		return shop.Store{}, r.fail("get store failed", fmt.Errorf("get store %d: %w", id, err), "store_id", id)
	}
	if len(stores) == 0 {
		return shop.Store{}, fmt.Errorf("get store %d: %w", id, notFound(store.Stores))
	}
	return stores[0], nil
}

// DeleteStore removes store id with its products, store orders, and every
// product order belonging to them.
func (r *Repository) DeleteStore(ctx context.Context, id int) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	if _, err := selectOne(ctx, r.backend, store.Stores, store.StoreFromRecord, store.Eq("id", id)); err != nil {
		return r.fail("delete store failed", fmt.Errorf("delete store %d: %w", id, err), "store_id", id)
	}

	res, err := r.runCascade(ctx, "store", id, storeCascade(id))
	if err != nil {
		return r.fail("delete store failed", err,
			"store_id", id,
			"partial", shop.IsPartialCascade(err),
		)
	}

	r.logger.Info("store deleted", append([]any{"store_id", id}, res.attrs()...)...)
	return nil
}

// loadStores reads the four tables and assembles them. When only is set the
// read is limited to that store.
func loadStores(ctx context.Context, b store.Backend, only *int) ([]shop.Store, error) {
	var storeScope, scope []store.Filter
	if only != nil {
		storeScope = []store.Filter{store.Eq("id", *only)}
		scope = []store.Filter{store.Eq("store_id", *only)}
	}

	stores, err := selectAll(ctx, b, store.Stores, store.StoreFromRecord, storeScope...)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return []shop.Store{}, nil
	}

	products, err := selectAll(ctx, b, store.Products, store.ProductFromRecord, scope...)
	if err != nil {
		return nil, err
	}
	orders, err := selectAll(ctx, b, store.StoreOrders, store.StoreOrderFromRecord, scope...)
	if err != nil {
		return nil, err
	}

	lines, err := committedLines(ctx, b, orders)
	if err != nil {
		return nil, err
	}

	return shop.Assemble(stores, products, orders, lines), nil
}

// committedLines returns the product orders belonging to orders.
func committedLines(ctx context.Context, b store.Backend, orders []shop.StoreOrder) ([]shop.ProductOrder, error) {
	if len(orders) == 0 {
		return []shop.ProductOrder{}, nil
	}
	ids := make([]int, len(orders))
	for i, so := range orders {
		ids[i] = so.ID
	}
	return selectAll(ctx, b, store.ProductOrders, store.ProductOrderFromRecord, store.InInts("store_order_id", ids))
}
