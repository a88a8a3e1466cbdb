// Package dshop implements a replicated shop on top of the Dragonboat RAFT
// consensus library. It implements shop.IShop with the same semantics as the
// local shop, but every write is agreed on by a majority of the replicas.
//
// Architecture:
//
//   - Shop Client: Implements shop.IShop. Writes become internal.Command values that are
//     proposed with SyncPropose, reads become internal.Query values passed to SyncRead.
//
//   - State Machine: ShopStateMachine is a Dragonboat IConcurrentStateMachine that owns
//     a db.ShopDB and applies the committed commands to it.
//
// Determinism:
//
//	Every replica applies the same commands in the same order and must end up in the same
//	state. Therefore the state machine never reads the wall clock. The creation time of
//	an order is taken by the proposer and travels inside the command, and the write index
//	is the raft log index of the entry.
//
// Write Operations:
//
//	1. The operation is serialized into a Command (structured arguments as JSON payload)
//	2. The Command is proposed to the RAFT cluster via SyncPropose
//	3. Once committed, the command is executed on the state machine on each node
//	4. The result carries the shop.RetCode in Result.Value and the JSON encoded return
//	   value (or the error message) in Result.Data
//
// Read Operations:
//
//   - Linearizable Reads: All lookups use SyncRead.
//   - Stale Reads: GetDBInfo uses StaleRead.
//
// Both paths retry on dragonboat.ErrSystemBusy and fail with RetCInternalError after
// the configured timeout.
//
// Snapshotting and Recovery:
//
//	PrepareSnapshot takes a deep copy of the database (db.ShopDB.Snapshot), which is then
//	written by SaveSnapshot while new entries are applied to the live database.
//	RecoverFromSnapshot replaces the database content with db.ShopDB.Load.
//
// Usage:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	dbFactory := func() db.ShopDB { return memdb.NewMemDB() }
//	err = nh.StartConcurrentReplica(clusterMembers, false, dshop.CreateStateMachineFactory(dbFactory), shardConfig)
//	if err != nil { ... }
//
//	s := dshop.NewDistributedShop(nh, shardID, 5*time.Second)
package dshop
