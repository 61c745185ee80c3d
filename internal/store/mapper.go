package store

import (
	"github.com/roach88/storefront/internal/shop"
)

// UserFromRecord maps a users row.
func UserFromRecord(rec Record) (shop.User, error) {
	r := newFieldReader("user", rec)
	u := shop.User{
		ID:           r.readInt("id"),
		Username:     r.readString("username"),
		PasswordHash: r.readString("password_hash"),
	}
	if r.err != nil {
		return shop.User{}, r.err
	}
	return u, nil
}

// StoreFromRecord maps a stores row. Child collections are left nil; they are
// attached by shop.Assemble.
func StoreFromRecord(rec Record) (shop.Store, error) {
	r := newFieldReader("store", rec)
	st := shop.Store{
		ID:      r.readInt("id"),
		Name:    r.readString("name"),
		Address: r.readString("address"),
		City:    r.readString("city"),
		State:   r.readString("state"),
	}
	if r.err != nil {
		return shop.Store{}, r.err
	}
	return st, nil
}

// ProductFromRecord maps a products row.
func ProductFromRecord(rec Record) (shop.Product, error) {
	r := newFieldReader("product", rec)
	p := shop.Product{
		ID:          r.readInt("id"),
		StoreID:     r.readInt("store_id"),
		Name:        r.readString("name"),
		Description: r.readString("description"),
		Price:       r.readDecimal("price"),
		Quantity:    r.readInt("quantity"),
	}
	if r.err != nil {
		return shop.Product{}, r.err
	}
	return p, nil
}

// StoreOrderFromRecord maps a store_orders row.
func StoreOrderFromRecord(rec Record) (shop.StoreOrder, error) {
	r := newFieldReader("store order", rec)
	so := shop.StoreOrder{
		ID:          r.readInt("id"),
		UserID:      r.readInt("user_id"),
		UserName:    r.readString("user_name"),
		ReferenceID: r.readString("reference_id"),
		StoreID:     r.readInt("store_id"),
		CurrDate:    r.readTime("curr_date"),
		DateSeconds: r.readInt64("date_seconds"),
		TotalAmount: r.readDecimal("total_amount"),
	}
	if r.err != nil {
		return shop.StoreOrder{}, r.err
	}
	return so, nil
}

// ProductOrderFromRecord maps a product_orders row.
func ProductOrderFromRecord(rec Record) (shop.ProductOrder, error) {
	r := newFieldReader("product order", rec)
	po := shop.ProductOrder{
		ID:           r.readInt("id"),
		UserID:       r.readInt("user_id"),
		StoreID:      r.readInt("store_id"),
		StoreOrderID: r.readInt("store_order_id"),
		UserOrderID:  r.readInt("user_order_id"),
		ProductID:    r.readInt("product_id"),
		ItemName:     r.readString("item_name"),
		TotalPrice:   r.readDecimal("total_price"),
		Quantity:     r.readInt("quantity"),
	}
	if r.err != nil {
		return shop.ProductOrder{}, r.err
	}
	return po, nil
}

// MapAll applies fn to every record, stopping at the first error.
func MapAll[T any](recs []Record, fn func(Record) (T, error)) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := fn(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// UserRecord builds the users row for u.
func UserRecord(u shop.User) Record {
	return Record{
		"id":            u.ID,
		"username":      u.Username,
		"password_hash": u.PasswordHash,
	}
}

// StoreRecord builds the stores row for st.
func StoreRecord(st shop.Store) Record {
	return Record{
		"id":      st.ID,
		"name":    st.Name,
		"address": st.Address,
		"city":    st.City,
		"state":   st.State,
	}
}

// ProductRecord builds the products row for p. Money is stored as a decimal string.
func ProductRecord(p shop.Product) Record {
	return Record{
		"store_id":    p.StoreID,
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.String(),
		"quantity":    p.Quantity,
	}
}

// StoreOrderRecord builds the store_orders row for so.
func StoreOrderRecord(so shop.StoreOrder) Record {
	return Record{
		"id":           so.ID,
		"user_id":      so.UserID,
		"user_name":    so.UserName,
		"reference_id": so.ReferenceID,
		"store_id":     so.StoreID,
		"curr_date":    so.CurrDate.UTC(),
		"date_seconds": so.DateSeconds,
		"total_amount": so.TotalAmount.String(),
	}
}

// ProductOrderRecord builds the product_orders row for po.
func ProductOrderRecord(po shop.ProductOrder) Record {
	return Record{
		"id":             po.ID,
		"user_id":        po.UserID,
		"store_id":       po.StoreID,
		"store_order_id": po.StoreOrderID,
		"user_order_id":  po.UserOrderID,
		"product_id":     po.ProductID,
		"item_name":      po.ItemName,
		"total_price":    po.TotalPrice.String(),
		"quantity":       po.Quantity,
	}
}
