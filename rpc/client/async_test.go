package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// TestAsyncRoundTrip tests the future-based variants of the core operations
func TestAsyncRoundTrip(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, srv, common.ProtocolGRPC)
	async := c.Async()

	ok, err := async.PutAsync(ctx, "async-key", "async-value").Result()
	if err != nil || !ok {
		t.Fatalf("PutAsync = (%v, %v), want (true, nil)", ok, err)
	}

	result, err := async.GetAsync(ctx, "async-key").Result()
	if err != nil {
		t.Fatalf("GetAsync failed: %v", err)
	}
	if !result.Found || result.Value != "async-value" {
		t.Errorf("GetAsync = %+v, want found async-value", result)
	}

	if ok, err := async.DeleteAsync(ctx, "async-key").Result(); err != nil || !ok {
		t.Errorf("DeleteAsync = (%v, %v), want (true, nil)", ok, err)
	}

	result, err = async.GetAsync(ctx, "async-key").Result()
	if err != nil {
		t.Fatalf("GetAsync after delete failed: %v", err)
	}
	if result.Found {
		t.Errorf("key still present after async delete")
	}
}

// TestAsyncConcurrent tests many concurrent futures resolving independently
func TestAsyncConcurrent(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, srv, common.ProtocolGRPC)
	async := c.Async()

	const n = 50
	futures := make([]*Future[bool], n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("conc-%d", i)
		futures[i] = async.PutAsync(ctx, key, fmt.Sprintf("v-%d", i))
	}

	for i, f := range futures {
		if ok, err := f.Result(); err != nil || !ok {
			t.Fatalf("future %d = (%v, %v), want (true, nil)", i, ok, err)
		}
	}

	// Every write must have landed
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("conc-%d", i)
		if value, found := srv.Get(key); !found || value != fmt.Sprintf("v-%d", i) {
			t.Errorf("key %s = (%q, %v) on the server, want written", key, value, found)
		}
	}
}

// TestAsyncErrorPropagation tests that operation failures resolve the future
// instead of panicking or hanging
func TestAsyncErrorPropagation(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, srv, common.ProtocolGRPC)

	ok, err := c.Async().PutAsync(ctx, "", "v").Result()
	if ok || !common.IsInvalidArgument(err) {
		t.Errorf("PutAsync with empty key = (%v, %v), want invalid argument", ok, err)
	}
}

// TestFutureWait tests the context-bounded wait on an unresolved future
func TestFutureWait(t *testing.T) {
	srv := startTestServer(t)
	c := newTestClient(t, srv, common.ProtocolGRPC)

	srv.SetDelay(300 * time.Millisecond)
	defer srv.SetDelay(0)

	future := c.Async().GetAsync(context.Background(), "slow-key")

	// A short wait must give up without resolving the future
	waitCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := future.Wait(waitCtx); !common.IsTimeout(err) {
		t.Errorf("Wait with expired context = %v, want a timeout error", err)
	}

	// The operation itself still resolves
	if _, err := future.Result(); err != nil {
		t.Errorf("future resolution failed: %v", err)
	}
}

// TestAsyncLimit tests that the concurrency bound is respected
func TestAsyncLimit(t *testing.T) {
	srv := startTestServer(t)

	config := srv.ClientConfig(common.ProtocolGRPC)
	config.AsyncLimit = 1
	c, err := NewKVDBClient(config)
	if err != nil {
		t.Fatalf("cannot create client: %v", err)
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("cannot connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	srv.SetDelay(200 * time.Millisecond)
	defer srv.SetDelay(0)

	async := c.Async()
	first := async.GetAsync(context.Background(), "k")

	// With one slot taken by a slow call, a second submission must not get
	// a slot before its context expires
	submitCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	second := async.GetAsync(submitCtx, "k")

	if _, err := second.Result(); err == nil {
		t.Errorf("expected the second submission to fail on the expired context")
	}
	if _, err := first.Result(); err != nil {
		t.Errorf("first future failed: %v", err)
	}
}
