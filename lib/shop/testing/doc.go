// Package testing provides a contract test suite for shop.IShop implementations.
//
// The same suite runs against the local shop, the RAFT replicated shop and the
// RPC client, so all of them agree on ids, error codes and checkout behavior.
//
//	shoptesting.RunShopTests(t, "LocalShop", func(t *testing.T) shop.IShop {
//		return lshop.NewLocalShop(func() db.ShopDB { return memdb.NewMemDB() })
//	})
package testing
