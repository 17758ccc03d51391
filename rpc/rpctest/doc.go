// Package rpctest provides an in-memory KVDB server for tests. One Server
// exposes the full operation set over gRPC, HTTP and WebSocket at once, all
// backed by the same store, so transport equivalence can be tested against
// identical state.
//
// The server also supports delay and failure injection for timeout and
// error-mapping tests.
package rpctest
