// Package ws implements the WebSocket transport adapter. Operations are
// framed as JSON messages ({"method": ..., "params": ...}) on a single
// persistent connection; the server answers each frame with a
// {"success", "data", "error"} envelope.
//
// The exchange is strict request/response, so calls are serialized on the
// connection. Subscriptions are not supported over this transport.
package ws
