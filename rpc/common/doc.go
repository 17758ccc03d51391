// Package common provides core data structures and utilities shared across
// the KVDB client SDK. It defines the wire message vocabulary, configuration
// structures and the client error taxonomy used by other packages.
//
// The package focuses on:
//   - Wire message definitions mirroring the fixed kvdb.KVDBService contract
//   - Configuration structures for client construction and transport tuning
//   - A single typed error hierarchy for all transport and server faults
//   - Named levelled loggers shared by the SDK packages
//
// Key Components:
//
//   - KeyValue, ScanOptions, Snapshot, DatabaseStats, SubscriptionEvent:
//     The plain value types exchanged with callers of the SDK.
//
//   - PutRequest/PutResponse and friends: One request/response pair per
//     logical operation. The shapes are a fixed external contract; the same
//     structs serve as gRPC messages (JSON codec), HTTP bodies and WebSocket
//     params.
//
//   - ClientConfig: Configuration for client components, controlling the
//     transport selection, timeouts, retry behavior, compression and pool
//     sizing. Immutable after client construction.
//
//   - Error / ErrorKind: The typed error hierarchy. Adapters translate
//     transport faults into these kinds at the boundary, preserving the
//     original detail message; callers branch on the kind.
package common
