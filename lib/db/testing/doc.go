// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.ShopDB interface.
//
// The package contains:
//   - testing: A test suite validating the ShopDB contract (id assignment, cart merging,
//     order bookkeeping, checkout, persistence and snapshots)
//   - benchmark: Performance tests for the common storefront access patterns
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.ShopDB {
//		return NewMyDatabase()
//	}
//
//	// Running the standard test suite
//	dbtesting.RunShopDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunShopDBBenchmarks(b, "MyDatabase", factory)
package testing
