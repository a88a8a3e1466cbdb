// Package db provides a standardized interface for the storefront database.
// It defines the ShopDB interface which holds the five relations of the shop
// (users, products, cart items, orders and order items) and the bookkeeping
// between them, abstracting the concrete storage engine.
//
// Key Components:
//
//   - ShopDB Interface: The core interface that all database implementations must satisfy.
//     It provides lookups (GetUser, GetProducts, GetCartItems, GetOrders, ...),
//     writes (CreateProduct, AddToCart, CreateOrder, Checkout, ...),
//     metadata retrieval (GetInfo) and persistence (Save, Load, Snapshot).
//
//   - Error Sentinels: ErrNotFound, ErrConflict, ErrInvalidInput and ErrEmptyCart are
//     wrapped by implementations so callers can use errors.Is.
//
//   - Database Information: The DatabaseInfo structure reports the write index and
//     row counts per table.
//
// Note on the Write Index:
//   - All write operations require a write-index parameter that serves as a logical
//     timestamp. The database keeps the highest index it has seen.
//   - Monotonicity Guarantee: Attempts to set a write-index lower than the current one
//     must be ignored. In a replicated setup the index is the raft log index, so replicas
//     that applied the same log report the same index.
//   - Wall clock values (the creation time of an order) are never taken inside the database.
//     They are passed in by the caller so that replicas stay deterministic.
//
// Related Packages:
//
// The engines/memdb package (github.com/ValentinKolb/dShop/lib/db/engines/memdb) provides
// an in-memory implementation backed by concurrent maps.
//
// The testing package (github.com/ValentinKolb/dShop/lib/db/testing) provides
// standardized tests and benchmarks for ShopDB implementations:
//   - RunShopDBTests: Runs a standardized test suite to validate implementations
//   - RunShopDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
