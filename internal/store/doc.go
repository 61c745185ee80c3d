// Package store defines the contract between the repository facade and a
// backing persistent store, plus the row mapper that turns persisted records
// into shop entities.
//
// A backend only needs filtered row primitives over five tables:
//
//	rows, err := b.Select(ctx, store.Products, store.Eq("store_id", 1))
//	err = b.Insert(ctx, store.Stores, store.StoreRecord(st))
//	n, err := b.Update(ctx, store.Products, set, store.Eq("store_id", 1), store.Eq("id", 2))
//	n, err := b.Delete(ctx, store.ProductOrders, store.In("store_order_id", 10, 11))
//
// Backends that can run several statements atomically also implement
// [Transactor]. Implementations live in sqlstore (database/sql) and memstore.
//
// Select results are ordered by the table's key columns ascending so reads
// are deterministic across backends.
package store
