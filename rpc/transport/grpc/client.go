package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"

	"github.com/kvdb-io/kvdb-go/rpc/common"
	"github.com/kvdb-io/kvdb-go/rpc/transport"
)

var Logger = common.GetLogger("transport/grpc")

// serviceName is the fully qualified name of the server's gRPC service
const serviceName = "kvdb.KVDBService"

// subscriptionBuffer is the channel capacity for subscription events. It
// absorbs short callback stalls without backing up the stream reader.
const subscriptionBuffer = 16

// NewGRPCClientTransport creates a new gRPC transport adapter
func NewGRPCClientTransport() transport.IKVClientTransport {
	return &grpcClientTransport{}
}

type grpcClientTransport struct {
	conn     *grpc.ClientConn
	config   common.ClientConfig
	callOpts []grpc.CallOption
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IKVClientTransport)
// --------------------------------------------------------------------------

func (t *grpcClientTransport) Connect(config common.ClientConfig) error {
	t.config = config

	callOpts := []grpc.CallOption{
		grpc.CallContentSubtype(CodecName),
	}
	if config.MaxRecvMsgSize > 0 {
		callOpts = append(callOpts, grpc.MaxCallRecvMsgSize(config.MaxRecvMsgSize))
	}
	if config.MaxSendMsgSize > 0 {
		callOpts = append(callOpts, grpc.MaxCallSendMsgSize(config.MaxSendMsgSize))
	}
	if config.EnableCompression {
		callOpts = append(callOpts, grpc.UseCompressor(gzip.Name))
	}
	t.callOpts = callOpts

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}

	// Setup retries only, never per-request retries
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
		conn, err := grpc.DialContext(ctx, config.ServerAddress, dialOpts...) //nolint:staticcheck // blocking dial verifies connectivity
		cancel()
		if err == nil {
			t.conn = conn
			Logger.Infof("connected to %s (attempt %d/%d)", config.ServerAddress, i+1, attempts)
			return nil
		}
		lastErr = err
		Logger.Warnf("connection attempt %d/%d to %s failed: %v", i+1, attempts, config.ServerAddress, err)
	}

	return common.NewConnectionError(
		fmt.Sprintf("failed to connect to %s after %d attempts", config.ServerAddress, attempts), lastErr)
}

func (t *grpcClientTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *grpcClientTransport) Name() string {
	return common.ProtocolGRPC
}

func (t *grpcClientTransport) Ping(_ context.Context) error {
	if t.conn == nil {
		return common.NewConnectionError("grpc transport not connected", nil)
	}
	switch state := t.conn.GetState(); state {
	case connectivity.Ready, connectivity.Idle:
		return nil
	default:
		return common.NewConnectionError(fmt.Sprintf("grpc channel in state %s", state), nil)
	}
}

func (t *grpcClientTransport) Put(ctx context.Context, key, value string) error {
	resp := &common.PutResponse{}
	if err := t.invoke(ctx, "Put", common.NewPutRequest(key, value), resp); err != nil {
		return err
	}
	return transport.ServerError("put", resp.Success, resp.ErrorMessage)
}

func (t *grpcClientTransport) Get(ctx context.Context, key string) (string, bool, error) {
	resp := &common.GetResponse{}
	if err := t.invoke(ctx, "Get", common.NewGetRequest(key), resp); err != nil {
		return "", false, err
	}
	if resp.ErrorMessage != "" {
		return "", false, common.NewInternalError(resp.ErrorMessage)
	}
	if !resp.Found {
		return "", false, nil
	}
	return resp.Value, true, nil
}

func (t *grpcClientTransport) Delete(ctx context.Context, key string) error {
	resp := &common.DeleteResponse{}
	if err := t.invoke(ctx, "Delete", common.NewDeleteRequest(key), resp); err != nil {
		return err
	}
	return transport.ServerError("delete", resp.Success, resp.ErrorMessage)
}

func (t *grpcClientTransport) BatchPut(ctx context.Context, pairs []common.KeyValue) error {
	resp := &common.BatchPutResponse{}
	if err := t.invoke(ctx, "BatchPut", common.NewBatchPutRequest(pairs), resp); err != nil {
		return err
	}
	return transport.ServerError("batch put", resp.Success, resp.ErrorMessage)
}

func (t *grpcClientTransport) BatchGet(ctx context.Context, keys []string) ([]common.KeyValue, error) {
	resp := &common.BatchGetResponse{}
	if err := t.invoke(ctx, "BatchGet", common.NewBatchGetRequest(keys), resp); err != nil {
		return nil, err
	}
	if resp.ErrorMessage != "" {
		return nil, common.NewInternalError(resp.ErrorMessage)
	}
	return resp.Pairs, nil
}

func (t *grpcClientTransport) Scan(ctx context.Context, opts common.ScanOptions) ([]common.KeyValue, error) {
	return t.collectPairs(ctx, "Scan", common.NewScanRequest(opts), opts.Limit)
}

func (t *grpcClientTransport) PrefixScan(ctx context.Context, prefix string, limit int32) ([]common.KeyValue, error) {
	return t.collectPairs(ctx, "PrefixScan", common.NewPrefixScanRequest(prefix, limit), limit)
}

func (t *grpcClientTransport) CreateSnapshot(ctx context.Context) (common.Snapshot, error) {
	resp := &common.CreateSnapshotResponse{}
	if err := t.invoke(ctx, "CreateSnapshot", &common.CreateSnapshotRequest{}, resp); err != nil {
		return common.Snapshot{}, err
	}
	if resp.ErrorMessage != "" {
		return common.Snapshot{}, common.NewInternalError(resp.ErrorMessage)
	}
	return common.Snapshot{ID: resp.SnapshotID}, nil
}

func (t *grpcClientTransport) ReleaseSnapshot(ctx context.Context, snapshot common.Snapshot) error {
	resp := &common.ReleaseSnapshotResponse{}
	if err := t.invoke(ctx, "ReleaseSnapshot", common.NewReleaseSnapshotRequest(snapshot), resp); err != nil {
		return err
	}
	return transport.ServerError("release snapshot", resp.Success, resp.ErrorMessage)
}

func (t *grpcClientTransport) GetAtSnapshot(ctx context.Context, key string, snapshot common.Snapshot) (string, bool, error) {
	resp := &common.GetAtSnapshotResponse{}
	if err := t.invoke(ctx, "GetAtSnapshot", common.NewGetAtSnapshotRequest(key, snapshot), resp); err != nil {
		return "", false, err
	}
	if resp.ErrorMessage != "" {
		return "", false, common.NewInternalError(resp.ErrorMessage)
	}
	if !resp.Found {
		return "", false, nil
	}
	return resp.Value, true, nil
}

func (t *grpcClientTransport) Flush(ctx context.Context) error {
	resp := &common.FlushResponse{}
	if err := t.invoke(ctx, "Flush", &common.FlushRequest{}, resp); err != nil {
		return err
	}
	return transport.ServerError("flush", resp.Success, resp.ErrorMessage)
}

func (t *grpcClientTransport) Compact(ctx context.Context) error {
	resp := &common.CompactResponse{}
	if err := t.invoke(ctx, "Compact", &common.CompactRequest{}, resp); err != nil {
		return err
	}
	return transport.ServerError("compact", resp.Success, resp.ErrorMessage)
}

func (t *grpcClientTransport) GetStats(ctx context.Context) (common.DatabaseStats, error) {
	resp := &common.GetStatsResponse{}
	if err := t.invoke(ctx, "GetStats", &common.GetStatsRequest{}, resp); err != nil {
		return common.DatabaseStats{}, err
	}
	if resp.ErrorMessage != "" {
		return common.DatabaseStats{}, common.NewInternalError(resp.ErrorMessage)
	}
	return common.DatabaseStats{
		MemtableSize:    resp.MemtableSize,
		WALSize:         resp.WALSize,
		CacheHitRate:    resp.CacheHitRate,
		ActiveSnapshots: resp.ActiveSnapshots,
	}, nil
}

func (t *grpcClientTransport) Subscribe(ctx context.Context, pattern string, includeDeletes bool) (<-chan common.SubscriptionEvent, error) {
	stream, err := t.openStream(ctx, "Subscribe", common.NewSubscribeRequest(pattern, includeDeletes))
	if err != nil {
		return nil, err
	}

	events := make(chan common.SubscriptionEvent, subscriptionBuffer)
	go func() {
		defer close(events)
		for {
			var ev common.SubscriptionEvent
			if err := stream.RecvMsg(&ev); err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					Logger.Warnf("subscription stream for pattern %q terminated: %v", pattern, err)
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// methodPath builds the full gRPC method path for a service method
func methodPath(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// invoke performs one unary call
func (t *grpcClientTransport) invoke(ctx context.Context, method string, req, resp interface{}) error {
	if t.conn == nil {
		return common.NewConnectionError("grpc transport not connected", nil)
	}
	if err := t.conn.Invoke(ctx, methodPath(method), req, resp, t.callOpts...); err != nil {
		return translateError(err)
	}
	return nil
}

// openStream opens a server stream and sends the single request message
func (t *grpcClientTransport) openStream(ctx context.Context, method string, req interface{}) (grpc.ClientStream, error) {
	if t.conn == nil {
		return nil, common.NewConnectionError("grpc transport not connected", nil)
	}

	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	stream, err := t.conn.NewStream(ctx, desc, methodPath(method), t.callOpts...)
	if err != nil {
		return nil, translateError(err)
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, translateError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, translateError(err)
	}
	return stream, nil
}

// collectPairs materializes a streamed scan response into an ordered list,
// preserving the server's streaming order and honoring the limit
func (t *grpcClientTransport) collectPairs(ctx context.Context, method string, req interface{}, limit int32) ([]common.KeyValue, error) {
	stream, err := t.openStream(ctx, method, req)
	if err != nil {
		return nil, err
	}

	var pairs []common.KeyValue
	for {
		var kv common.KeyValue
		if err := stream.RecvMsg(&kv); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, translateError(err)
		}
		pairs = append(pairs, kv)
		if limit > 0 && int32(len(pairs)) >= limit {
			break
		}
	}
	return pairs, nil
}
