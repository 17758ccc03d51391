// Package rpc provides the client-side framework for talking to a remote
// KVDB server. It acts as the communication layer between applications and
// the database, offering the same logical operations over several protocols.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures shared across the client, including the
//     wire message definitions, the client configuration, the error taxonomy
//     and logging.
//
//   - transport: Protocol adapters with pluggable implementations (gRPC,
//     HTTP, WebSocket) behind one transport interface.
//
//   - client: The client facade, its asynchronous variant and the
//     subscription manager.
//
//   - rpctest: An in-memory fake server speaking all supported protocols,
//     used by the package tests.
package rpc
