package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// checkoutAttempts bounds how often Checkout re-reads a cart that gained a
// line from a store it had not locked.
const checkoutAttempts = 3

// errUnlockedStore reports a cart line whose store is not in the locked set.
var errUnlockedStore = errors.New("cart holds a line from a store that is not locked")

// AddProductOrder puts quantity units of a product in the cart of username.
// A second add of the same product grows the existing cart line. The line
// snapshots the product name and prices the units at the current price.
func (r *Repository) AddProductOrder(ctx context.Context, username string, storeID, productID, quantity int) (shop.ProductOrder, error) {
	username = NormalizeUsername(username)
	attrs := []any{"username", username, "store_id", storeID, "product_id", productID}
	if quantity < 1 {
		return shop.ProductOrder{}, r.fail("add to cart failed", invalid("quantity must be at least 1, got %d", quantity), attrs...)
	}

	var line shop.ProductOrder
	err := r.atomically(ctx, func(b store.Backend) error {
		u, err := getUser(ctx, b, username)
		if err != nil {
			return err
		}
		p, err := r.getProduct(ctx, b, storeID, productID)
		if err != nil {
			return err
		}

		existing, err := selectAll(ctx, b, store.ProductOrders, store.ProductOrderFromRecord,
			store.Eq("user_id", u.ID), store.Eq("store_order_id", 0),
			store.Eq("store_id", storeID), store.Eq("product_id", productID))
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			line = existing[0]
			line.Quantity += quantity
			if line.Quantity > p.Quantity {
				return stockError(p, line.Quantity)
			}
			line.TotalPrice = lineTotal(p.Price, line.Quantity)
			_, err := b.Update(ctx, store.ProductOrders, store.Record{
				"quantity":    line.Quantity,
				"total_price": line.TotalPrice.String(),
			}, store.Eq("id", line.ID))
			return err
		}

		if quantity > p.Quantity {
			return stockError(p, quantity)
		}
		id, err := nextID(ctx, b, store.ProductOrders)
		if err != nil {
			return err
		}
		line = shop.ProductOrder{
			ID:         id,
			UserID:     u.ID,
			StoreID:    storeID,
			ProductID:  productID,
			ItemName:   p.Name,
			TotalPrice: lineTotal(p.Price, quantity),
			Quantity:   quantity,
		}
		return b.Insert(ctx, store.ProductOrders, store.ProductOrderRecord(line))
	})
	if err != nil {
		return shop.ProductOrder{}, r.fail("add to cart failed", fmt.Errorf("add product %d of store %d to cart of %q: %w", productID, storeID, username, err), attrs...)
	}

	r.logger.Info("cart line saved", append(attrs,
		"product_order_id", line.ID,
		"quantity", line.Quantity,
		"total_price", line.TotalPrice.String(),
	)...)
	return line, nil
}

// GetCart returns the cart lines of username ordered by id.
func (r *Repository) GetCart(ctx context.Context, username string) ([]shop.ProductOrder, error) {
	username = NormalizeUsername(username)
	var lines []shop.ProductOrder
	err := r.atomically(ctx, func(b store.Backend) error {
		var err error
		lines, err = cartLines(ctx, b, username)
		return err
	})
	if err != nil {
		return nil, r.fail("get cart failed", fmt.Errorf("get cart of %q: %w", username, err), "username", username)
	}
	return lines, nil
}

// GetProductOrder returns product order id, in a cart or checked out.
func (r *Repository) GetProductOrder(ctx context.Context, id int) (shop.ProductOrder, error) {
	po, err := selectOne(ctx, r.backend, store.ProductOrders, store.ProductOrderFromRecord, store.Eq("id", id))
	if err != nil {
		err = fmt.Errorf("get product order %d: %w", id, err)
		if !errors.Is(err, shop.ErrNotFound) {
			return shop.ProductOrder{}, r.fail("get product order failed", err, "product_order_id", id)
		}
		return shop.ProductOrder{}, err
	}
	return po, nil
}

// EditProductOrder sets the quantity of cart line id and reprices it.
// Checked-out lines cannot be edited.
func (r *Repository) EditProductOrder(ctx context.Context, id, quantity int) (shop.ProductOrder, error) {
	attrs := []any{"product_order_id", id}
	if quantity < 1 {
		return shop.ProductOrder{}, r.fail("edit cart line failed", invalid("quantity must be at least 1, got %d", quantity), attrs...)
	}

	var line shop.ProductOrder
	err := r.atomically(ctx, func(b store.Backend) error {
		var err error
		line, err = cartLine(ctx, b, id)
		if err != nil {
			return err
		}
		p, err := r.getProduct(ctx, b, line.StoreID, line.ProductID)
		if err != nil {
			return err
		}
		if quantity > p.Quantity {
			return stockError(p, quantity)
		}

		line.Quantity = quantity
		line.TotalPrice = lineTotal(p.Price, quantity)
		_, err = b.Update(ctx, store.ProductOrders, store.Record{
			"quantity":    line.Quantity,
			"total_price": line.TotalPrice.String(),
		}, store.Eq("id", id))
		return err
	})
	if err != nil {
		return shop.ProductOrder{}, r.fail("edit cart line failed", fmt.Errorf("edit product order %d: %w", id, err), attrs...)
	}

	r.logger.Info("cart line edited", append(attrs,
		"quantity", line.Quantity,
		"total_price", line.TotalPrice.String(),
	)...)
	return line, nil
}

// DeleteProductOrder removes cart line id. Checked-out lines cannot be removed.
func (r *Repository) DeleteProductOrder(ctx context.Context, id int) error {
	err := r.atomically(ctx, func(b store.Backend) error {
		if _, err := cartLine(ctx, b, id); err != nil {
			return err
		}
		_, err := b.Delete(ctx, store.ProductOrders, store.Eq("id", id))
		return err
	})
	if err != nil {
		return r.fail("delete cart line failed", fmt.Errorf("delete product order %d: %w", id, err), "product_order_id", id)
	}

	r.logger.Info("cart line deleted", "product_order_id", id)
	return nil
}

// ClearCart removes every cart line of username and returns how many were removed.
func (r *Repository) ClearCart(ctx context.Context, username string) (int64, error) {
	username = NormalizeUsername(username)
	var n int64
	err := r.atomically(ctx, func(b store.Backend) error {
		u, err := getUser(ctx, b, username)
		if err != nil {
			return err
		}
		n, err = b.Delete(ctx, store.ProductOrders, store.Eq("user_id", u.ID), store.Eq("store_order_id", 0))
		return err
	})
	if err != nil {
		return 0, r.fail("clear cart failed", fmt.Errorf("clear cart of %q: %w", username, err), "username", username)
	}

	r.logger.Info("cart cleared", "username", username, "removed", n)
	return n, nil
}

// Checkout turns the cart of username into one store order per store.
//
// Stock is checked and decremented, each store order is stamped with the
// clock and a fresh reference id, and every cart line is attached to its
// store order. All lines of one checkout share a user order id, the user's
// next. Nothing is written if the cart is empty or any product is short.
//
// The stores of every cart line stay locked for the whole checkout. A line
// from another store added between the cart read and the transaction makes
// the checkout start over with that store locked too.
func (r *Repository) Checkout(ctx context.Context, username string) ([]shop.StoreOrder, error) {
	username = NormalizeUsername(username)

	var orders []shop.StoreOrder
	var err error
	for attempt := 0; attempt < checkoutAttempts; attempt++ {
		orders, err = r.checkoutLocked(ctx, username)
		if !errors.Is(err, errUnlockedStore) {
			break
		}
	}
	if err != nil {
		return nil, r.fail("checkout failed", fmt.Errorf("checkout %q: %w", username, err), "username", username)
	}

	for _, so := range orders {
		r.logger.Info("store order placed",
			"username", username,
			"store_id", so.StoreID,
			"store_order_id", so.ID,
			"reference_id", so.ReferenceID,
			"lines", len(so.ProductOrders),
			"total_amount", so.TotalAmount.String(),
		)
	}
	return orders, nil
}

// checkoutLocked locks the stores of the current cart and checks out in one
// transaction.
func (r *Repository) checkoutLocked(ctx context.Context, username string) ([]shop.StoreOrder, error) {
	var preview []shop.ProductOrder
	err := r.atomically(ctx, func(b store.Backend) error {
		var err error
		preview, err = cartLines(ctx, b, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	locked := make(map[int]bool, len(preview))
	storeIDs := make([]int, 0, len(preview))
	for _, line := range preview {
		locked[line.StoreID] = true
		storeIDs = append(storeIDs, line.StoreID)
	}
	unlock := r.locks.LockAll(storeIDs)
	defer unlock()

	var orders []shop.StoreOrder
	err = r.atomically(ctx, func(b store.Backend) error {
		var err error
		orders, err = r.checkout(ctx, b, username, locked)
		return err
	})
	return orders, err
}

func (r *Repository) checkout(ctx context.Context, b store.Backend, username string, locked map[int]bool) ([]shop.StoreOrder, error) {
	u, err := getUser(ctx, b, username)
	if err != nil {
		return nil, err
	}
	lines, err := selectAll(ctx, b, store.ProductOrders, store.ProductOrderFromRecord,
		store.Eq("user_id", u.ID), store.Eq("store_order_id", 0))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, shop.ErrEmptyCart
	}
	for _, line := range lines {
		if !locked[line.StoreID] {
			return nil, fmt.Errorf("%w: store %d", errUnlockedStore, line.StoreID)
		}
	}

	// Reserve stock first so a short product aborts before any order exists.
	type productKey struct{ storeID, productID int }
	wanted := make(map[productKey]int)
	var keys []productKey
	for _, line := range lines {
		k := productKey{line.StoreID, line.ProductID}
		if _, ok := wanted[k]; !ok {
			keys = append(keys, k)
		}
		wanted[k] += line.Quantity
	}
	for _, k := range keys {
		p, err := r.getProduct(ctx, b, k.storeID, k.productID)
		if err != nil {
			return nil, err
		}
		if wanted[k] > p.Quantity {
			return nil, stockError(p, wanted[k])
		}
		if _, err := b.Update(ctx, store.Products, store.Record{"quantity": p.Quantity - wanted[k]},
			store.Eq("store_id", k.storeID), store.Eq("id", k.productID)); err != nil {
			return nil, err
		}
	}

	orderID, err := nextID(ctx, b, store.StoreOrders)
	if err != nil {
		return nil, err
	}
	userOrderID, err := nextValue(ctx, b, store.ProductOrders, "user_order_id", store.Eq("user_id", u.ID))
	if err != nil {
		return nil, err
	}
	now := r.clock.Now().UTC()

	byStore := make(map[int][]shop.ProductOrder)
	var stores []int
	for _, line := range lines {
		if _, ok := byStore[line.StoreID]; !ok {
			stores = append(stores, line.StoreID)
		}
		byStore[line.StoreID] = append(byStore[line.StoreID], line)
	}
	sort.Ints(stores)

	orders := make([]shop.StoreOrder, 0, len(stores))
	for _, storeID := range stores {
		so := shop.StoreOrder{
			ID:          orderID,
			UserID:      u.ID,
			UserName:    u.Username,
			ReferenceID: r.refs.Generate(),
			StoreID:     storeID,
			CurrDate:    now,
			DateSeconds: now.Unix(),
			TotalAmount: decimal.Zero,
		}
		orderID++

		storeLines := byStore[storeID]
		ids := make([]int, len(storeLines))
		for i := range storeLines {
			storeLines[i].StoreOrderID = so.ID
			storeLines[i].UserOrderID = userOrderID
			so.TotalAmount = so.TotalAmount.Add(storeLines[i].TotalPrice)
			ids[i] = storeLines[i].ID
		}

		if err := b.Insert(ctx, store.StoreOrders, store.StoreOrderRecord(so)); err != nil {
			return nil, err
		}
		if _, err := b.Update(ctx, store.ProductOrders, store.Record{
			"store_order_id": so.ID,
			"user_order_id":  userOrderID,
		}, store.InInts("id", ids)); err != nil {
			return nil, err
		}

		so.ProductOrders = storeLines
		orders = append(orders, so)
	}
	return orders, nil
}

func cartLines(ctx context.Context, b store.Backend, username string) ([]shop.ProductOrder, error) {
	u, err := getUser(ctx, b, username)
	if err != nil {
		return nil, err
	}
	return selectAll(ctx, b, store.ProductOrders, store.ProductOrderFromRecord,
		store.Eq("user_id", u.ID), store.Eq("store_order_id", 0))
}

// cartLine returns product order id if it is still in a cart.
func cartLine(ctx context.Context, b store.Backend, id int) (shop.ProductOrder, error) {
	po, err := selectOne(ctx, b, store.ProductOrders, store.ProductOrderFromRecord, store.Eq("id", id))
	if err != nil {
		return shop.ProductOrder{}, err
	}
	if !po.InCart() {
		return shop.ProductOrder{}, invalid("product order %d is already checked out in store order %d", id, po.StoreOrderID)
	}
	return po, nil
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func stockError(p shop.Product, want int) error {
	return fmt.Errorf("%w: product %d of store %d has %d, want %d",
		shop.ErrInsufficientStock, p.ID, p.StoreID, p.Quantity, want)
}
