package shop

// Assemble links flat entity collections into store aggregates.
//
// Each store receives the products and store orders whose StoreID matches its
// ID, and each of those store orders receives the product orders whose
// StoreOrderID matches. Children keep their input order. Stores without
// children get empty, non-nil slices. Cart lines (StoreOrderID 0) are never
// attached.
//
// Children are grouped by foreign key before the join, so the cost is linear
// in the total number of entities. The input slices are not modified.
func Assemble(stores []Store, products []Product, storeOrders []StoreOrder, productOrders []ProductOrder) []Store {
	productsByStore := make(map[int][]Product)
	for _, p := range products {
		productsByStore[p.StoreID] = append(productsByStore[p.StoreID], p)
	}

	linesByOrder := groupLines(productOrders)

	ordersByStore := make(map[int][]StoreOrder)
	for _, so := range storeOrders {
		ordersByStore[so.StoreID] = append(ordersByStore[so.StoreID], so)
	}

	out := make([]Store, 0, len(stores))
	for _, st := range stores {
		st.Products = cloneOrEmpty(productsByStore[st.ID])

		orders := ordersByStore[st.ID]
		st.StoreOrders = make([]StoreOrder, len(orders))
		for i, so := range orders {
			so.ProductOrders = cloneOrEmpty(linesByOrder[so.ID])
			st.StoreOrders[i] = so
		}

		out = append(out, st)
	}
	return out
}

// AttachLines sets ProductOrders on each store order from the given lines,
// keeping input order. Used for order listings that are not nested in a store.
func AttachLines(storeOrders []StoreOrder, productOrders []ProductOrder) []StoreOrder {
	linesByOrder := groupLines(productOrders)

	out := make([]StoreOrder, len(storeOrders))
	for i, so := range storeOrders {
		so.ProductOrders = cloneOrEmpty(linesByOrder[so.ID])
		out[i] = so
	}
	return out
}

// groupLines indexes committed product orders by store order id.
func groupLines(productOrders []ProductOrder) map[int][]ProductOrder {
	linesByOrder := make(map[int][]ProductOrder)
	for _, po := range productOrders {
		if po.InCart() {
			continue
		}
		linesByOrder[po.StoreOrderID] = append(linesByOrder[po.StoreOrderID], po)
	}
	return linesByOrder
}

func cloneOrEmpty[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
