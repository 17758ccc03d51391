// Package transport defines the adapter contract of the KVDB client SDK.
// It provides a common interface that all transport implementations must
// fulfill, enabling protocol-agnostic access to the database.
//
// The package focuses on:
//   - Defining one operation-level interface covering the full logical
//     operation set of the server
//   - Enabling interchangeable implementations (gRPC, HTTP, WebSocket)
//   - Fixing the fault-translation rule: every transport fault becomes a
//     typed *common.Error at the adapter boundary
//
// Key Components:
//
//   - IKVClientTransport: Interface for client-side transport adapters.
//     Each adapter maps one logical operation to exactly one wire call and
//     is selected once at client construction.
package transport
