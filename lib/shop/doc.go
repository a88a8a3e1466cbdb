// Package shop provides the high-level interface of the storefront backend.
// It serves as an abstraction layer over the db.ShopDB engines, adding write index
// management, wall clock timestamps and standardized error reporting.
//
// Key Components:
//
//   - IShop Interface: The operations on users, products, carts and orders. All
//     implementations share this interface, so the REST api and the RPC server
//     do not care whether the shop is local, replicated or remote.
//
//   - Error System: Errors are *Error values with a RetCode. The code survives the
//     trip over RPC, so a NotFound of a remote shop is still a NotFound for the
//     caller. FromDBError translates the sentinel errors of the db package.
//
//   - DBFactory: A function type that abstracts the creation of the underlying
//     db.ShopDB instances.
//
// Implementations:
//
//	- Local Shop (lshop): A single node implementation that directly uses a
//	  db.ShopDB. The write index is advanced with atomic operations.
//	  Available in the "github.com/ValentinKolb/dShop/lib/shop/lshop" package.
//
//	- Distributed Shop (dshop): An implementation built on the Dragonboat RAFT
//	  consensus library. Writes are proposed as commands and applied by every replica.
//	  Available in the "github.com/ValentinKolb/dShop/lib/shop/dshop" package.
//
//	- RPC Client: rpc/client implements IShop for a shop hosted by a remote server.
package shop
