package client

import (
	"context"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// --------------------------------------------------------------------------
// Futures
// --------------------------------------------------------------------------

// Future is the handle for one in-flight async operation. It resolves
// exactly once; Wait and Result may be called any number of times and from
// any goroutine afterwards.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete resolves the future. Must be called exactly once.
func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel that is closed when the future resolves
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx ends. An abandoned wait does
// not stop the underlying operation; the future still resolves.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, common.WrapContextError(ctx.Err())
	}
}

// Result returns the resolved value and error. Blocks until resolution.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// --------------------------------------------------------------------------
// Async Facade
// --------------------------------------------------------------------------

// GetResult carries the outcome of an async read
type GetResult struct {
	Value string
	Found bool
}

// AsyncKVDBClient wraps a client with future-returning variants of all
// operations. Concurrency is bounded by the configured async limit; when the
// limit is reached, submission blocks until a slot frees up.
type AsyncKVDBClient struct {
	client *KVDBClient
}

// Async returns the async facade of the client. The facade shares the
// client's connection, limit and metrics.
func (c *KVDBClient) Async() *AsyncKVDBClient {
	return &AsyncKVDBClient{client: c}
}

// submit acquires a concurrency slot and runs fn in its own goroutine.
// A context that ends before a slot is available resolves the future with
// the translated context error.
func submit[T any](ctx context.Context, c *KVDBClient, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		var zero T
		f.complete(zero, common.WrapContextError(err))
		return f
	}

	go func() {
		defer c.sem.Release(1)
		f.complete(fn(ctx))
	}()
	return f
}

// submitErr adapts error-only operations to the future machinery. The
// resolved value reports whether the operation succeeded.
func submitErr(ctx context.Context, c *KVDBClient, fn func(context.Context) error) *Future[bool] {
	return submit(ctx, c, func(ctx context.Context) (bool, error) {
		if err := fn(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
}

// PutAsync stores a key-value pair in the background
func (a *AsyncKVDBClient) PutAsync(ctx context.Context, key, value string) *Future[bool] {
	return submitErr(ctx, a.client, func(ctx context.Context) error {
		return a.client.Put(ctx, key, value)
	})
}

// GetAsync reads a key in the background
func (a *AsyncKVDBClient) GetAsync(ctx context.Context, key string) *Future[GetResult] {
	return submit(ctx, a.client, func(ctx context.Context) (GetResult, error) {
		value, found, err := a.client.Get(ctx, key)
		return GetResult{Value: value, Found: found}, err
	})
}

// DeleteAsync removes a key in the background
func (a *AsyncKVDBClient) DeleteAsync(ctx context.Context, key string) *Future[bool] {
	return submitErr(ctx, a.client, func(ctx context.Context) error {
		return a.client.Delete(ctx, key)
	})
}

// BatchPutAsync stores all pairs in the background
func (a *AsyncKVDBClient) BatchPutAsync(ctx context.Context, pairs []common.KeyValue) *Future[bool] {
	return submitErr(ctx, a.client, func(ctx context.Context) error {
		return a.client.BatchPut(ctx, pairs)
	})
}

// BatchGetAsync reads all keys in the background
func (a *AsyncKVDBClient) BatchGetAsync(ctx context.Context, keys []string) *Future[[]common.KeyValue] {
	return submit(ctx, a.client, func(ctx context.Context) ([]common.KeyValue, error) {
		return a.client.BatchGet(ctx, keys)
	})
}

// ScanAsync reads a key range in the background
func (a *AsyncKVDBClient) ScanAsync(ctx context.Context, opts common.ScanOptions) *Future[[]common.KeyValue] {
	return submit(ctx, a.client, func(ctx context.Context) ([]common.KeyValue, error) {
		return a.client.Scan(ctx, opts)
	})
}

// PrefixScanAsync reads a prefix range in the background
func (a *AsyncKVDBClient) PrefixScanAsync(ctx context.Context, prefix string, limit int32) *Future[[]common.KeyValue] {
	return submit(ctx, a.client, func(ctx context.Context) ([]common.KeyValue, error) {
		return a.client.PrefixScan(ctx, prefix, limit)
	})
}

// CreateSnapshotAsync creates a snapshot in the background
func (a *AsyncKVDBClient) CreateSnapshotAsync(ctx context.Context) *Future[common.Snapshot] {
	return submit(ctx, a.client, func(ctx context.Context) (common.Snapshot, error) {
		return a.client.CreateSnapshot(ctx)
	})
}

// ReleaseSnapshotAsync releases a snapshot in the background
func (a *AsyncKVDBClient) ReleaseSnapshotAsync(ctx context.Context, snapshot common.Snapshot) *Future[bool] {
	return submitErr(ctx, a.client, func(ctx context.Context) error {
		return a.client.ReleaseSnapshot(ctx, snapshot)
	})
}

// GetAtSnapshotAsync reads a key as of a snapshot in the background
func (a *AsyncKVDBClient) GetAtSnapshotAsync(ctx context.Context, key string, snapshot common.Snapshot) *Future[GetResult] {
	return submit(ctx, a.client, func(ctx context.Context) (GetResult, error) {
		value, found, err := a.client.GetAtSnapshot(ctx, key, snapshot)
		return GetResult{Value: value, Found: found}, err
	})
}

// FlushAsync runs a flush in the background
func (a *AsyncKVDBClient) FlushAsync(ctx context.Context) *Future[bool] {
	return submitErr(ctx, a.client, func(ctx context.Context) error {
		return a.client.Flush(ctx)
	})
}

// CompactAsync runs a compaction in the background
func (a *AsyncKVDBClient) CompactAsync(ctx context.Context) *Future[bool] {
	return submitErr(ctx, a.client, func(ctx context.Context) error {
		return a.client.Compact(ctx)
	})
}

// GetStatsAsync reads the server statistics in the background
func (a *AsyncKVDBClient) GetStatsAsync(ctx context.Context) *Future[common.DatabaseStats] {
	return submit(ctx, a.client, func(ctx context.Context) (common.DatabaseStats, error) {
		return a.client.GetStats(ctx)
	})
}
