// Package memdb implements db.ShopDB in memory.
//
// Every relation is a table of value rows kept in a concurrent map (xsync.MapOf)
// with an atomic id sequence. Readers never take a lock. Writers are serialized by
// a single mutex so that multi-table writes (checkout, order creation with stock
// updates) are atomic with respect to each other.
//
// Save writes a small header (magic number and version) followed by a gob encoded
// dump of all tables. Load replaces the complete content of the database.
package memdb
