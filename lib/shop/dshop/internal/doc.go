// Package internal contains the commands and queries exchanged between the
// distributed shop and its RAFT state machine.
//
// Commands are written to the raft log and must therefore be serialized compactly
// and deterministically. Structured arguments (new products, patches, orders) are
// carried as JSON in the command payload. Queries never leave the node and are
// passed to the state machine as plain structs.
package internal
