// Package common provides core data structures and utilities shared by the RPC
// server, the RPC client and the command line tools of dShop.
//
// The package focuses on:
//   - Message protocol definition for the shop operations
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat and backed by zap
//   - Utilities for Dragonboat (RAFT) integration
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. Simple arguments
//     (ids, quantities, usernames) travel in dedicated fields, structured arguments
//     and results are JSON encoded into Value. Errors keep their shop.RetCode.
//
//   - MessageType: Enumeration of all supported operations, grouped into users,
//     products, cart, orders and control messages.
//
//   - ServerConfig: Configuration for server nodes, including the served shards,
//     RAFT parameters, the transport and catalog seeding. Provides utilities for
//     converting to Dragonboat-specific configurations.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Dragonboat logger factory whose loggers write through a shared
//     zap console core, so raft internals and dShop packages log in one format.
package common
