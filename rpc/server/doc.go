// Package server implements the RPC server of dShop.
// It provides the adapter that translates RPC requests into shop.IShop calls, along
// with the core server implementation that manages shards and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for all shop operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with support for local and replicated shops
//   - Seeding the shards with the product catalog
//   - Per operation request timings, logged periodically
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a shop.IShop.
//
//   - NewIShopServerAdapter: Factory function creating an adapter for shop
//     operations. Structured arguments are JSON decoded from the message value,
//     malformed arguments are rejected with shop.RetCInvalidInput.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalIShop},
//	  },
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  TimeoutSecond: 5,
//	  Seed:          true,
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Serve until the context is cancelled
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardTypeLocalIShop: A local shop, suitable for single-node deployments
//     or development environments.
//
//   - ShardTypeRemoteIShop: A replicated shop using Raft consensus, providing
//     strong consistency across multiple nodes. When using this type, the RAFT
//     configuration (RTTMillisecond, SnapshotEntries, CompactionOverhead,
//     DataDir, ReplicaID, and ClusterMembers) must be properly configured.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	Serve should be called only once.
package server
