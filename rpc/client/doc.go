// Package client implements the KVDB client facade. It provides uniform,
// concurrency-safe access to a remote KVDB server over any of the supported
// transport adapters.
//
// The package focuses on:
//   - One facade (KVDBClient) over the pluggable transport adapters
//   - Bounded asynchronous variants of all operations (AsyncKVDBClient)
//   - Subscription lifecycle management for change streams
//   - Typed error normalization and per-operation metrics
//
// Key Components:
//
//   - NewKVDBClient: Factory function that selects the transport adapter by
//     the configured protocol and returns an unconnected client.
//
//   - KVDBClient.Async: Returns the future-based async facade sharing the
//     client's connection and concurrency limit.
//
//   - KVDBClient.Subscribe: Opens a change stream and returns a Subscription
//     handle with an event channel and idempotent cancellation.
//
// Usage Example:
//
//	// Configure and connect the client
//	config := common.DefaultClientConfig()
//	config.ServerAddress = "localhost:50051"
//
//	c, _ := client.NewKVDBClient(config)
//	_ = c.Connect()
//	defer c.Close()
//
//	// Use the store
//	_ = c.Put(ctx, "mykey", "myvalue")
//	value, found, _ := c.Get(ctx, "mykey")
//
//	// Run operations concurrently
//	future := c.Async().GetAsync(ctx, "mykey")
//	result, _ := future.Result()
package client
