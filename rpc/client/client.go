package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kvdb-io/kvdb-go/rpc/common"
	"github.com/kvdb-io/kvdb-go/rpc/transport"
	"github.com/kvdb-io/kvdb-go/rpc/transport/grpc"
	"github.com/kvdb-io/kvdb-go/rpc/transport/http"
	"github.com/kvdb-io/kvdb-go/rpc/transport/ws"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/semaphore"
)

var Logger = common.GetLogger("client")

// NewKVDBClient creates a new client for the given configuration. The
// transport adapter is selected by config.Protocol. The returned client is
// not yet connected; call Connect before issuing operations.
func NewKVDBClient(config common.ClientConfig) (*KVDBClient, error) {
	if err := config.Validate(); err != nil {
		return nil, common.NewInvalidArgumentError(err.Error())
	}

	var t transport.IKVClientTransport
	switch config.Protocol {
	case common.ProtocolGRPC:
		t = grpc.NewGRPCClientTransport()
	case common.ProtocolHTTP:
		t = http.NewHTTPClientTransport()
	case common.ProtocolWebSocket:
		t = ws.NewWSClientTransport()
	}

	return NewKVDBClientWithTransport(config, t)
}

// NewKVDBClientWithTransport creates a new client on an explicitly supplied
// transport adapter. Used by tests and by callers with custom transports.
func NewKVDBClientWithTransport(config common.ClientConfig, t transport.IKVClientTransport) (*KVDBClient, error) {
	if err := config.Validate(); err != nil {
		return nil, common.NewInvalidArgumentError(err.Error())
	}
	if err := common.SetLogLevel(config.LogLevel); err != nil {
		return nil, common.NewInvalidArgumentError(err.Error())
	}

	asyncLimit := config.AsyncLimit
	if asyncLimit < 1 {
		asyncLimit = 1
	}

	return &KVDBClient{
		config:        config,
		transport:     t,
		subscriptions: xsync.NewMapOf[uint64, *Subscription](),
		sem:           semaphore.NewWeighted(int64(asyncLimit)),
		metrics:       newClientMetrics(),
	}, nil
}

// KVDBClient is the facade over one transport adapter. All operations are
// safe for concurrent use; the client holds exactly one logical connection.
type KVDBClient struct {
	config    common.ClientConfig
	transport transport.IKVClientTransport

	mu        sync.Mutex
	connected bool

	subscriptions *xsync.MapOf[uint64, *Subscription]
	nextSubID     atomic.Uint64

	sem     *semaphore.Weighted
	metrics *clientMetrics
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Connect establishes the transport connection. Connecting an already
// connected client is an error.
func (c *KVDBClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return common.NewConnectionError("client is already connected", nil)
	}
	if err := c.transport.Connect(c.config); err != nil {
		return err
	}
	c.connected = true
	Logger.Infof("client connected via %s to %s", c.transport.Name(), c.config.ServerAddress)
	return nil
}

// Close cancels all active subscriptions and releases the transport.
// Closing a client that was never connected is a no-op.
func (c *KVDBClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	c.subscriptions.Range(func(_ uint64, sub *Subscription) bool {
		sub.Cancel()
		return true
	})

	return c.transport.Close()
}

// Config returns a copy of the client configuration
func (c *KVDBClient) Config() common.ClientConfig {
	return c.config
}

// Protocol returns the name of the active transport adapter
func (c *KVDBClient) Protocol() string {
	return c.transport.Name()
}

// Ping verifies the server is reachable
func (c *KVDBClient) Ping(ctx context.Context) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return common.WrapContextError(c.transport.Ping(ctx))
}

// --------------------------------------------------------------------------
// Key-Value Operations
// --------------------------------------------------------------------------

// Put stores a key-value pair
func (c *KVDBClient) Put(ctx context.Context, key, value string) error {
	if err := c.precheck(checkKey(key)); err != nil {
		return err
	}
	defer c.metrics.observe("put", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return c.finish("put", c.transport.Put(ctx, key, value))
}

// Get reads a key. An absent key is reported as found=false, never as an
// error.
func (c *KVDBClient) Get(ctx context.Context, key string) (value string, found bool, err error) {
	if err := c.precheck(checkKey(key)); err != nil {
		return "", false, err
	}
	defer c.metrics.observe("get", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	value, found, err = c.transport.Get(ctx, key)
	return value, found, c.finish("get", err)
}

// Delete removes a key. Deleting an absent key succeeds.
func (c *KVDBClient) Delete(ctx context.Context, key string) error {
	if err := c.precheck(checkKey(key)); err != nil {
		return err
	}
	defer c.metrics.observe("delete", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return c.finish("delete", c.transport.Delete(ctx, key))
}

// BatchPut stores all pairs in one wire call. The batch is submitted in the
// given order; an empty batch is rejected.
func (c *KVDBClient) BatchPut(ctx context.Context, pairs []common.KeyValue) error {
	if err := c.precheck(checkPairs(pairs)); err != nil {
		return err
	}
	defer c.metrics.observe("batch_put", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return c.finish("batch_put", c.transport.BatchPut(ctx, pairs))
}

// BatchGet reads all keys in one wire call. Absent keys are omitted from the
// result, so the result may be shorter than the key list.
func (c *KVDBClient) BatchGet(ctx context.Context, keys []string) ([]common.KeyValue, error) {
	if err := c.precheck(checkKeys(keys)); err != nil {
		return nil, err
	}
	defer c.metrics.observe("batch_get", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	pairs, err := c.transport.BatchGet(ctx, keys)
	return pairs, c.finish("batch_get", err)
}

// --------------------------------------------------------------------------
// Range Operations
// --------------------------------------------------------------------------

// Scan reads the key range described by opts, preserving the server's
// streaming order
func (c *KVDBClient) Scan(ctx context.Context, opts common.ScanOptions) ([]common.KeyValue, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	defer c.metrics.observe("scan", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	pairs, err := c.transport.Scan(ctx, opts)
	return pairs, c.finish("scan", err)
}

// PrefixScan reads at most limit pairs whose keys share the prefix
func (c *KVDBClient) PrefixScan(ctx context.Context, prefix string, limit int32) ([]common.KeyValue, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	defer c.metrics.observe("prefix_scan", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	pairs, err := c.transport.PrefixScan(ctx, prefix, limit)
	return pairs, c.finish("prefix_scan", err)
}

// --------------------------------------------------------------------------
// Snapshot Operations
// --------------------------------------------------------------------------

// CreateSnapshot asks the server for a new point-in-time view. The caller
// owns the returned handle and should release it when done.
func (c *KVDBClient) CreateSnapshot(ctx context.Context) (common.Snapshot, error) {
	if err := c.ensureConnected(); err != nil {
		return common.Snapshot{}, err
	}
	defer c.metrics.observe("create_snapshot", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	snap, err := c.transport.CreateSnapshot(ctx)
	return snap, c.finish("create_snapshot", err)
}

// ReleaseSnapshot releases a snapshot handle on the server
func (c *KVDBClient) ReleaseSnapshot(ctx context.Context, snapshot common.Snapshot) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	defer c.metrics.observe("release_snapshot", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return c.finish("release_snapshot", c.transport.ReleaseSnapshot(ctx, snapshot))
}

// GetAtSnapshot reads a key as of the given snapshot
func (c *KVDBClient) GetAtSnapshot(ctx context.Context, key string, snapshot common.Snapshot) (value string, found bool, err error) {
	if err := c.precheck(checkKey(key)); err != nil {
		return "", false, err
	}
	defer c.metrics.observe("get_at_snapshot", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	value, found, err = c.transport.GetAtSnapshot(ctx, key, snapshot)
	return value, found, c.finish("get_at_snapshot", err)
}

// --------------------------------------------------------------------------
// Admin Operations
// --------------------------------------------------------------------------

// Flush asks the server to persist its memtable
func (c *KVDBClient) Flush(ctx context.Context) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	defer c.metrics.observe("flush", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return c.finish("flush", c.transport.Flush(ctx))
}

// Compact asks the server to run a compaction
func (c *KVDBClient) Compact(ctx context.Context) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	defer c.metrics.observe("compact", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return c.finish("compact", c.transport.Compact(ctx))
}

// GetStats returns the server's statistics summary
func (c *KVDBClient) GetStats(ctx context.Context) (common.DatabaseStats, error) {
	if err := c.ensureConnected(); err != nil {
		return common.DatabaseStats{}, err
	}
	defer c.metrics.observe("get_stats", time.Now())

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	stats, err := c.transport.GetStats(ctx)
	return stats, c.finish("get_stats", err)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// ensureConnected guards every operation against use before Connect
func (c *KVDBClient) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return common.NewConnectionError("client is not connected", nil)
	}
	return nil
}

// precheck combines the connectivity guard with argument validation
func (c *KVDBClient) precheck(argErr error) error {
	if argErr != nil {
		return argErr
	}
	return c.ensureConnected()
}

// opContext bounds one operation with the configured request timeout. The
// caller's context still applies; whichever deadline is earlier wins.
func (c *KVDBClient) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.RequestTimeout)
}

// finish normalizes an operation result and updates the error counter
func (c *KVDBClient) finish(op string, err error) error {
	err = common.WrapContextError(err)
	c.metrics.count(op, err)
	return err
}

// checkKey validates a single key argument
func checkKey(key string) error {
	if key == "" {
		return common.NewInvalidArgumentError("key must not be empty")
	}
	return nil
}

// checkKeys validates a key list argument
func checkKeys(keys []string) error {
	if len(keys) == 0 {
		return common.NewInvalidArgumentError("key list must not be empty")
	}
	for i, key := range keys {
		if key == "" {
			return common.NewInvalidArgumentError(fmt.Sprintf("key at index %d must not be empty", i))
		}
	}
	return nil
}

// checkPairs validates a batch put argument
func checkPairs(pairs []common.KeyValue) error {
	if len(pairs) == 0 {
		return common.NewInvalidArgumentError("batch must not be empty")
	}
	for i, pair := range pairs {
		if pair.Key == "" {
			return common.NewInvalidArgumentError(fmt.Sprintf("key at index %d must not be empty", i))
		}
	}
	return nil
}
