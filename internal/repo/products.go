package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// AddProduct adds p to store storeID. p.StoreID is replaced by storeID.
// The store must exist and the product id must be unused within it.
func (r *Repository) AddProduct(ctx context.Context, storeID int, p shop.Product) error {
	p.StoreID = storeID
	attrs := []any{"store_id", storeID, "product_id", p.ID}

	if err := validateProduct(p); err != nil {
		return r.fail("add product failed", err, attrs...)
	}

	unlock := r.locks.Lock(storeID)
	defer unlock()

	err := r.atomically(ctx, func(b store.Backend) error {
		if _, err := selectOne(ctx, b, store.Stores, store.StoreFromRecord, store.Eq("id", storeID)); err != nil {
			return err
		}
		return b.Insert(ctx, store.Products, store.ProductRecord(p))
	})
	if err != nil {
		return r.fail("add product failed", fmt.Errorf("add product %d to store %d: %w", p.ID, storeID, err), attrs...)
	}

	r.logger.Info("product added", append(attrs,
		"name", p.Name,
		"price", p.Price.String(),
		"quantity", p.Quantity,
	)...)
	return nil
}

// EditProduct replaces the description, price and quantity of a product.
// Name and ids are immutable.
func (r *Repository) EditProduct(ctx context.Context, storeID, productID int, description string, price decimal.Decimal, quantity int) error {
	attrs := []any{"store_id", storeID, "product_id", productID}

	if err := validateStock(price, quantity); err != nil {
		return r.fail("edit product failed", err, attrs...)
	}

	// Existence is checked separately: MySQL reports only rows whose values
	// changed as affected.
	err := r.atomically(ctx, func(b store.Backend) error {
		if _, err := r.getProduct(ctx, b, storeID, productID); err != nil {
			return err
		}
		_, err := b.Update(ctx, store.Products, store.Record{
			"description": description,
			"price":       price.String(),
			"quantity":    quantity,
		}, store.Eq("store_id", storeID), store.Eq("id", productID))
		return err
	})
	if err != nil {
		return r.fail("edit product failed", fmt.Errorf("edit product %d in store %d: %w", productID, storeID, err), attrs...)
	}

	r.logger.Info("product edited", append(attrs,
		"description", description,
		"price", price.String(),
		"quantity", quantity,
	)...)
	return nil
}

// DeleteProduct removes a product and every order line referencing it.
func (r *Repository) DeleteProduct(ctx context.Context, storeID, productID int) error {
	attrs := []any{"store_id", storeID, "product_id", productID}

	unlock := r.locks.Lock(storeID)
	defer unlock()

	if _, err := r.getProduct(ctx, r.backend, storeID, productID); err != nil {
		return r.fail("delete product failed", fmt.Errorf("delete product %d in store %d: %w", productID, storeID, err), attrs...)
	}

	res, err := r.runCascade(ctx, "product", productID, productCascade(storeID, productID))
	if err != nil {
		return r.fail("delete product failed", err, append(attrs, "partial", shop.IsPartialCascade(err))...)
	}

	r.logger.Info("product deleted", append(attrs, res.attrs()...)...)
	return nil
}

// GetProductByID returns product productID of store storeID, or an error
// matching shop.ErrNotFound.
func (r *Repository) GetProductByID(ctx context.Context, storeID, productID int) (shop.Product, error) {
	p, err := r.getProduct(ctx, r.backend, storeID, productID)
	if err != nil {
		err = fmt.Errorf("get product %d in store %d: %w", productID, storeID, err)
		if !errors.Is(err, shop.ErrNotFound) {
			return shop.Product{}, r.fail("get product failed", err, "store_id", storeID, "product_id", productID)
		}
		return shop.Product{}, err
	}
	return p, nil
}

func (r *Repository) getProduct(ctx context.Context, b store.Backend, storeID, productID int) (shop.Product, error) {
	return selectOne(ctx, b, store.Products, store.ProductFromRecord,
		store.Eq("store_id", storeID), store.Eq("id", productID))
}

func validateProduct(p shop.Product) error {
	if p.ID <= 0 {
		return invalid("product id must be positive, got %d", p.ID)
	}
	if err := checkRange("product id", p.ID); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("product name is required")
	}
	return validateStock(p.Price, p.Quantity)
}

func validateStock(price decimal.Decimal, quantity int) error {
	if price.IsNegative() {
		return invalid("price must not be negative, got %s", price)
	}
	if quantity < 0 {
		return invalid("quantity must not be negative, got %d", quantity)
	}
	return checkRange("quantity", quantity)
}
