// Package lshop implements a local, in-memory, single-node shop based on the
// shop.IShop interface. It is a thin wrapper around any db.ShopDB implementation
// with automatic write index management. Data is not persisted between process restarts.
//
// Implementation Details:
//
//   - Write Index Management: The shop maintains an atomic counter that is incremented
//     with each write operation and passed to the database as logical timestamp.
//
//   - Timestamps: Orders are stamped with the wall clock of the node.
//
//   - Errors: Missing rows become shop.RetCNotFound, engine errors are translated
//     with shop.FromDBError.
//
// Usage Example:
//
//	s := lshop.NewLocalShop(func() db.ShopDB { return memdb.NewMemDB() })
//	product, err := s.CreateProduct(model.InsertProduct{Name: "Mug", Price: "9.99", ...})
//
// For a replicated shop use the dshop package, which implements the same interface on
// top of RAFT.
package lshop
