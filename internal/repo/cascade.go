package repo

import (
	"context"
	"fmt"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// Cascade step names, in the order a store delete applies them.
const (
	StepProductOrders = "product_orders"
	StepProducts      = "products"
	StepStoreOrders   = "store_orders"
	StepStores        = "stores"
)

// cascadeStep removes one layer of dependents and returns the rows removed.
type cascadeStep struct {
	name string
	run  func(ctx context.Context, b store.Backend) (int64, error)
}

// cascadeResult records the rows removed per step.
type cascadeResult struct {
	removed map[string]int64
}

func (c cascadeResult) attrs() []any {
	out := make([]any, 0, 2*len(c.removed))
	for _, step := range []string{StepProductOrders, StepProducts, StepStoreOrders, StepStores} {
		if n, ok := c.removed[step]; ok {
			out = append(out, "removed_"+step, n)
		}
	}
	return out
}

// runCascade applies steps in order. On a transactional backend every step
// shares one transaction and a failure undoes all of them; otherwise steps are
// applied one at a time and a failure leaves earlier steps in place.
func (r *Repository) runCascade(ctx context.Context, entity string, id int, steps []cascadeStep) (cascadeResult, error) {
	res := cascadeResult{removed: make(map[string]int64, len(steps))}
	var completed []string
	failed := ""

	apply := func(b store.Backend) error {
		for _, step := range steps {
			n, err := step.run(ctx, b)
			if err != nil {
				failed = step.name
				return err
			}
			res.removed[step.name] = n
			completed = append(completed, step.name)
		}
		return nil
	}

	tx, ok := r.backend.(store.Transactor)
	if !ok {
		if err := apply(r.backend); err != nil {
			return res, &shop.CascadeError{
				Entity: entity, ID: id, Step: failed,
				Completed: completed, Err: err,
			}
		}
		return res, nil
	}

	if err := tx.InTx(ctx, apply); err != nil {
		if failed == "" {
			failed = "commit"
		}
		return cascadeResult{}, &shop.CascadeError{
			Entity: entity, ID: id, Step: failed,
			Completed: completed, RolledBack: true, Err: err,
		}
	}
	return res, nil
}

// storeCascade lists the steps removing store id and everything under it.
func storeCascade(id int) []cascadeStep {
	return []cascadeStep{
		{StepProductOrders, func(ctx context.Context, b store.Backend) (int64, error) {
			orders, err := b.Select(ctx, store.StoreOrders, store.Eq("store_id", id))
			if err != nil {
				return 0, err
			}
			orderIDs := make([]any, 0, len(orders))
			for _, rec := range orders {
				orderIDs = append(orderIDs, rec["id"])
			}

			n, err := b.Delete(ctx, store.ProductOrders, store.Eq("store_id", id))
			if err != nil {
				return n, err
			}
			if len(orderIDs) == 0 {
				return n, nil
			}
			// Lines of this store's orders that name another store.
			m, err := b.Delete(ctx, store.ProductOrders, store.In("store_order_id", orderIDs...))
			return n + m, err
		}},
		{StepProducts, func(ctx context.Context, b store.Backend) (int64, error) {
			return b.Delete(ctx, store.Products, store.Eq("store_id", id))
		}},
		{StepStoreOrders, func(ctx context.Context, b store.Backend) (int64, error) {
			return b.Delete(ctx, store.StoreOrders, store.Eq("store_id", id))
		}},
		{StepStores, func(ctx context.Context, b store.Backend) (int64, error) {
			n, err := b.Delete(ctx, store.Stores, store.Eq("id", id))
			if err == nil && n == 0 {
				err = fmt.Errorf("store %d: %w", id, shop.ErrNotFound)
			}
			return n, err
		}},
	}
}

// productCascade lists the steps removing product productID of storeID and
// every order line referencing it.
func productCascade(storeID, productID int) []cascadeStep {
	return []cascadeStep{
		{StepProductOrders, func(ctx context.Context, b store.Backend) (int64, error) {
			return b.Delete(ctx, store.ProductOrders,
				store.Eq("store_id", storeID), store.Eq("product_id", productID))
		}},
		{StepProducts, func(ctx context.Context, b store.Backend) (int64, error) {
			n, err := b.Delete(ctx, store.Products,
				store.Eq("store_id", storeID), store.Eq("id", productID))
			if err == nil && n == 0 {
				err = fmt.Errorf("product %d in store %d: %w", productID, storeID, shop.ErrNotFound)
			}
			return n, err
		}},
	}
}
