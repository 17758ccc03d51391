// Package grpc implements the gRPC transport adapter. Each facade operation
// maps to one unary or server-streaming call against the fixed
// kvdb.KVDBService contract; messages are encoded with a registered JSON
// codec over the hand-written structs in the common package.
//
// This is the only adapter with streaming support, and therefore the only
// one that can serve subscriptions.
package grpc
