// Package shop defines the storefront entities and the in-memory graph
// assembly that turns flat table rows into store aggregates.
//
// # Aggregates
//
// A Store owns its Products and its StoreOrders. Each StoreOrder owns the
// ProductOrders that were checked out with it. ProductOrders whose
// StoreOrderID is zero are cart lines: they belong to a user and are never
// attached to a store order.
//
// Assemble links the four flat collections by foreign key:
//
//	stores := shop.Assemble(stores, products, storeOrders, productOrders)
//
// # Errors
//
// The package defines the error taxonomy shared by every backend and the
// repository facade:
//
//   - [ErrNotFound] - entity is absent
//   - [ErrDuplicateKey] - insert with an existing key
//   - [ErrMapping] / [MappingError] - malformed persisted row
//   - [ErrPartialCascade] / [CascadeError] - delete cascade stopped partway
//   - [ErrInvalid] - rejected input (negative price, zero quantity, ...)
//   - [ErrEmptyCart], [ErrInsufficientStock] - checkout failures
package shop
