package transport

import (
	"context"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// IKVClientTransport is the interface every transport adapter implements.
// Each method translates exactly one logical operation into one wire call;
// adapters never retry logical requests and never reorder batch contents.
//
// All adapters must produce behaviorally identical results for identical
// logical operations. Faults are reported as *common.Error with the
// appropriate kind; "value absent" on reads is a normal return, never an
// error.
type IKVClientTransport interface {
	// Connect initializes the transport with the given configuration and
	// verifies connectivity within config.ConnectionTimeout, retrying
	// setup up to config.MaxRetries times
	Connect(config common.ClientConfig) error

	// Close releases all transport handles
	Close() error

	// Name returns the protocol name of the adapter (e.g. "grpc")
	Name() string

	// Ping verifies the server is reachable
	Ping(ctx context.Context) error

	// Put stores a key-value pair
	Put(ctx context.Context, key, value string) error

	// Get reads a key. found is false if the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// BatchPut stores all pairs in one wire call
	BatchPut(ctx context.Context, pairs []common.KeyValue) error

	// BatchGet reads all keys in one wire call. Keys without a value are
	// omitted from the result.
	BatchGet(ctx context.Context, keys []string) ([]common.KeyValue, error)

	// Scan reads the key range [opts.StartKey, opts.EndKey], at most
	// opts.Limit pairs, in the order the server streams them
	Scan(ctx context.Context, opts common.ScanOptions) ([]common.KeyValue, error)

	// PrefixScan reads at most limit pairs whose keys share the prefix
	PrefixScan(ctx context.Context, prefix string, limit int32) ([]common.KeyValue, error)

	// CreateSnapshot asks the server for a new point-in-time view
	CreateSnapshot(ctx context.Context) (common.Snapshot, error)

	// ReleaseSnapshot releases a server-side snapshot. Unknown ids are
	// rejected by the server, not the client.
	ReleaseSnapshot(ctx context.Context, snapshot common.Snapshot) error

	// GetAtSnapshot reads a key as of the given snapshot
	GetAtSnapshot(ctx context.Context, key string, snapshot common.Snapshot) (value string, found bool, err error)

	// Flush asks the server to persist its memtable
	Flush(ctx context.Context) error

	// Compact asks the server to run a compaction
	Compact(ctx context.Context) error

	// GetStats returns the server's statistics summary
	GetStats(ctx context.Context) (common.DatabaseStats, error)

	// Subscribe opens a change stream for keys matching pattern. The
	// returned channel is closed when the stream ends or ctx is cancelled.
	// Transports without streaming support fail fast with a capability
	// error of kind common.KindInvalidArgument.
	Subscribe(ctx context.Context, pattern string, includeDeletes bool) (<-chan common.SubscriptionEvent, error)
}
