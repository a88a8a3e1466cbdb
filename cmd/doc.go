// Package cmd implements the command-line interface of dShop. It provides a
// hierarchical command structure for running the server and for interacting with
// it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the RPC server with its shards and the REST api
//   - gateway: Starts a REST api that is backed by a remote shard over RPC
//   - shop: Client commands for products, users, carts, orders and benchmarks
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dshop -help for a list of all commands.
package cmd
