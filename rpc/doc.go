// Package rpc provides the remote procedure call layer of dShop. It connects
// clients (the CLI, REST gateways) with the servers that hold the shards of the shop.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC client implementation of the shop.IShop interface,
//     allowing applications to use a remote shard like a local one.
//
//   - server: RPC server that hosts local and raft replicated shards and
//     dispatches incoming requests to the shop adapter.
package rpc
