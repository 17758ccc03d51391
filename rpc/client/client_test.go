package client

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kvdb-io/kvdb-go/rpc/common"
	"github.com/kvdb-io/kvdb-go/rpc/rpctest"
)

// testProtocols lists all transports the facade must behave identically on
var testProtocols = []string{
	common.ProtocolGRPC,
	common.ProtocolHTTP,
	common.ProtocolWebSocket,
}

func startTestServer(t *testing.T) *rpctest.Server {
	t.Helper()
	srv, err := rpctest.StartServer()
	if err != nil {
		t.Fatalf("cannot start test server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *rpctest.Server, protocol string) *KVDBClient {
	t.Helper()
	c, err := NewKVDBClient(srv.ClientConfig(protocol))
	if err != nil {
		t.Fatalf("cannot create %s client: %v", protocol, err)
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("cannot connect %s client: %v", protocol, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// TestPutGetDelete tests the basic round trip over every transport
func TestPutGetDelete(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)
			key := protocol + "-key"

			if err := c.Put(ctx, key, "value-1"); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			value, found, err := c.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !found || value != "value-1" {
				t.Errorf("Get = (%q, %v), want (value-1, true)", value, found)
			}

			// Overwrite must be visible
			if err := c.Put(ctx, key, "value-2"); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if value, _, _ := c.Get(ctx, key); value != "value-2" {
				t.Errorf("Get after overwrite = %q, want value-2", value)
			}

			if err := c.Delete(ctx, key); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, found, _ := c.Get(ctx, key); found {
				t.Errorf("key still present after delete")
			}

			// Deleting an absent key succeeds
			if err := c.Delete(ctx, key); err != nil {
				t.Errorf("Delete of an absent key failed: %v", err)
			}
		})
	}
}

// TestGetAbsentKey tests that an absent key is a normal result, not an error
func TestGetAbsentKey(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)

			value, found, err := c.Get(ctx, "never-written")
			if err != nil {
				t.Fatalf("Get of an absent key must not fail, got: %v", err)
			}
			if found || value != "" {
				t.Errorf("Get = (%q, %v), want (\"\", false)", value, found)
			}
		})
	}
}

// TestBatchOperations tests batch put and get, including partially absent
// key lists
func TestBatchOperations(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)

			pairs := []common.KeyValue{
				{Key: protocol + "-batch-a", Value: "1"},
				{Key: protocol + "-batch-b", Value: "2"},
				{Key: protocol + "-batch-c", Value: "3"},
			}
			if err := c.BatchPut(ctx, pairs); err != nil {
				t.Fatalf("BatchPut failed: %v", err)
			}

			// Absent keys are omitted, present keys keep list order
			keys := []string{pairs[0].Key, "absent-key", pairs[2].Key}
			got, err := c.BatchGet(ctx, keys)
			if err != nil {
				t.Fatalf("BatchGet failed: %v", err)
			}
			want := []common.KeyValue{pairs[0], pairs[2]}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("BatchGet = %v, want %v", got, want)
			}
		})
	}
}

// TestArgumentValidation tests client-side rejection before any wire call
func TestArgumentValidation(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, srv, common.ProtocolGRPC)

	if err := c.Put(ctx, "", "v"); !common.IsInvalidArgument(err) {
		t.Errorf("Put with empty key = %v, want invalid argument", err)
	}
	if _, _, err := c.Get(ctx, ""); !common.IsInvalidArgument(err) {
		t.Errorf("Get with empty key = %v, want invalid argument", err)
	}
	if err := c.BatchPut(ctx, nil); !common.IsInvalidArgument(err) {
		t.Errorf("BatchPut with empty batch = %v, want invalid argument", err)
	}
	if _, err := c.BatchGet(ctx, []string{"ok", ""}); !common.IsInvalidArgument(err) {
		t.Errorf("BatchGet with empty key = %v, want invalid argument", err)
	}
}

// TestScan tests range scans with bounds, order and limit
func TestScan(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	// Seed directly so every protocol sees the same state
	for _, kv := range []common.KeyValue{
		{Key: "scan/a", Value: "1"},
		{Key: "scan/b", Value: "2"},
		{Key: "scan/c", Value: "3"},
		{Key: "scan/d", Value: "4"},
		{Key: "zzz", Value: "out of range"},
	} {
		srv.Put(kv.Key, kv.Value)
	}

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)

			got, err := c.Scan(ctx, common.ScanOptions{StartKey: "scan/a", EndKey: "scan/d"})
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			wantKeys := []string{"scan/a", "scan/b", "scan/c", "scan/d"}
			if len(got) != len(wantKeys) {
				t.Fatalf("Scan returned %d pairs, want %d", len(got), len(wantKeys))
			}
			for i, key := range wantKeys {
				if got[i].Key != key {
					t.Errorf("Scan[%d].Key = %q, want %q", i, got[i].Key, key)
				}
			}

			// The limit caps the result
			got, err = c.Scan(ctx, common.ScanOptions{StartKey: "scan/a", EndKey: "scan/d", Limit: 2})
			if err != nil {
				t.Fatalf("Scan with limit failed: %v", err)
			}
			if len(got) != 2 {
				t.Errorf("Scan with limit returned %d pairs, want 2", len(got))
			}
		})
	}
}

// TestPrefixScan tests prefix scans over every transport
func TestPrefixScan(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	srv.Put("user:1", "alice")
	srv.Put("user:2", "bob")
	srv.Put("session:1", "xyz")

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)

			got, err := c.PrefixScan(ctx, "user:", 0)
			if err != nil {
				t.Fatalf("PrefixScan failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("PrefixScan returned %d pairs, want 2", len(got))
			}
			for _, pair := range got {
				if !strings.HasPrefix(pair.Key, "user:") {
					t.Errorf("PrefixScan returned key %q outside the prefix", pair.Key)
				}
			}

			got, err = c.PrefixScan(ctx, "user:", 1)
			if err != nil {
				t.Fatalf("PrefixScan with limit failed: %v", err)
			}
			if len(got) != 1 {
				t.Errorf("PrefixScan with limit returned %d pairs, want 1", len(got))
			}
		})
	}
}

// TestSnapshots tests that a snapshot preserves the point-in-time view while
// the live data moves on
func TestSnapshots(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)
			key := protocol + "-snap-key"

			if err := c.Put(ctx, key, "frozen"); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			snap, err := c.CreateSnapshot(ctx)
			if err != nil {
				t.Fatalf("CreateSnapshot failed: %v", err)
			}
			if snap.ID == 0 {
				t.Fatalf("snapshot id must not be zero")
			}

			// Mutations after the snapshot must not leak into it
			if err := c.Put(ctx, key, "live"); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			value, found, err := c.GetAtSnapshot(ctx, key, snap)
			if err != nil {
				t.Fatalf("GetAtSnapshot failed: %v", err)
			}
			if !found || value != "frozen" {
				t.Errorf("GetAtSnapshot = (%q, %v), want (frozen, true)", value, found)
			}

			if value, _, _ := c.Get(ctx, key); value != "live" {
				t.Errorf("live Get = %q, want live", value)
			}

			if err := c.ReleaseSnapshot(ctx, snap); err != nil {
				t.Fatalf("ReleaseSnapshot failed: %v", err)
			}

			// The handle is dead after release
			if _, _, err := c.GetAtSnapshot(ctx, key, snap); err == nil {
				t.Errorf("GetAtSnapshot on a released snapshot must fail")
			}
			if err := c.ReleaseSnapshot(ctx, snap); err == nil {
				t.Errorf("double release must fail")
			}
		})
	}
}

// TestAdminOperations tests flush, compact and stats over every transport
func TestAdminOperations(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	for i, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)

			if err := c.Flush(ctx); err != nil {
				t.Fatalf("Flush failed: %v", err)
			}
			if err := c.Compact(ctx); err != nil {
				t.Fatalf("Compact failed: %v", err)
			}
			if got := srv.Flushes(); got != i+1 {
				t.Errorf("server handled %d flushes, want %d", got, i+1)
			}

			srv.Put("stats-key", "stats-value")
			stats, err := c.GetStats(ctx)
			if err != nil {
				t.Fatalf("GetStats failed: %v", err)
			}
			if stats.MemtableSize == 0 {
				t.Errorf("stats must report a non-empty memtable")
			}
		})
	}
}

// TestServerErrorSurface tests that a server-reported failure arrives as a
// typed error carrying the server's message
func TestServerErrorSurface(t *testing.T) {
	srv := startTestServer(t)
	ctx := context.Background()

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			c := newTestClient(t, srv, protocol)

			srv.FailNext("disk on fire")
			_, _, err := c.Get(ctx, "any-key")
			if err == nil {
				t.Fatalf("expected the injected failure to surface")
			}
			if !strings.Contains(err.Error(), "disk on fire") {
				t.Errorf("error %q does not carry the server message", err)
			}
		})
	}
}

// TestRequestTimeout tests that a slow server surfaces as a timeout error
func TestRequestTimeout(t *testing.T) {
	ctx := context.Background()

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			// Each protocol gets a fresh server; a timed-out exchange may
			// leave the connection unusable
			srv := startTestServer(t)

			config := srv.ClientConfig(protocol)
			config.RequestTimeout = 100 * time.Millisecond
			c, err := NewKVDBClient(config)
			if err != nil {
				t.Fatalf("cannot create client: %v", err)
			}
			if err := c.Connect(); err != nil {
				t.Fatalf("cannot connect: %v", err)
			}
			t.Cleanup(func() { _ = c.Close() })

			srv.SetDelay(500 * time.Millisecond)
			_, _, err = c.Get(ctx, "slow-key")
			if !common.IsTimeout(err) {
				t.Errorf("Get against a slow server = %v, want a timeout error", err)
			}
		})
	}
}

// TestUseBeforeConnect tests the connectivity guard
func TestUseBeforeConnect(t *testing.T) {
	srv := startTestServer(t)

	c, err := NewKVDBClient(srv.ClientConfig(common.ProtocolGRPC))
	if err != nil {
		t.Fatalf("cannot create client: %v", err)
	}

	if err := c.Put(context.Background(), "k", "v"); !common.IsConnection(err) {
		t.Errorf("Put before Connect = %v, want a connection error", err)
	}

	// Close before Connect is a no-op
	if err := c.Close(); err != nil {
		t.Errorf("Close before Connect failed: %v", err)
	}

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Connect(); !common.IsConnection(err) {
		t.Errorf("second Connect = %v, want a connection error", err)
	}
}

// TestConnectFailure tests that an unreachable server is reported as a
// connection error after the configured retries
func TestConnectFailure(t *testing.T) {
	config := common.DefaultClientConfig()
	config.ServerAddress = "127.0.0.1:1" // nothing listens here
	config.ConnectionTimeout = 200 * time.Millisecond
	config.MaxRetries = 2

	for _, protocol := range testProtocols {
		t.Run(protocol, func(t *testing.T) {
			config.Protocol = protocol
			c, err := NewKVDBClient(config)
			if err != nil {
				t.Fatalf("cannot create client: %v", err)
			}
			if err := c.Connect(); !common.IsConnection(err) {
				t.Errorf("Connect = %v, want a connection error", err)
			}
		})
	}
}

// TestMetricsOutput tests that operations show up in the Prometheus dump
func TestMetricsOutput(t *testing.T) {
	srv := startTestServer(t)
	c := newTestClient(t, srv, common.ProtocolHTTP)

	if err := c.Put(context.Background(), "m-key", "m-value"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var sb strings.Builder
	c.WriteMetrics(&sb)
	out := sb.String()

	if !strings.Contains(out, `kvdb_client_requests_total{op="put",status="ok"}`) {
		t.Errorf("metrics output is missing the put counter:\n%s", out)
	}
}
