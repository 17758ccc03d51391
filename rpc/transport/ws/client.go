package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kvdb-io/kvdb-go/rpc/common"
	"github.com/kvdb-io/kvdb-go/rpc/transport"
)

var Logger = common.GetLogger("transport/ws")

// NewWSClientTransport creates a new WebSocket transport adapter
func NewWSClientTransport() transport.IKVClientTransport {
	return &wsClientTransport{}
}

type wsClientTransport struct {
	conn   *websocket.Conn
	config common.ClientConfig

	// The protocol is strict request/response on a single connection, so
	// calls are serialized: one in flight at a time.
	mu sync.Mutex
}

// request is the JSON-RPC-style frame sent to the server
type request struct {
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// envelope is the response frame
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IKVClientTransport)
// --------------------------------------------------------------------------

func (t *wsClientTransport) Connect(config common.ClientConfig) error {
	t.config = config

	dialer := websocket.Dialer{
		HandshakeTimeout:  config.ConnectionTimeout,
		EnableCompression: config.EnableCompression,
	}

	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	dialURL := config.WebSocketURL()
	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, _, err := dialer.Dial(dialURL, nil)
		if err == nil {
			t.conn = conn
			Logger.Infof("connected to %s (attempt %d/%d)", dialURL, i+1, attempts)
			return nil
		}
		lastErr = err
		Logger.Warnf("connection attempt %d/%d to %s failed: %v", i+1, attempts, dialURL, err)
	}

	return common.NewConnectionError(
		fmt.Sprintf("failed to connect to %s after %d attempts", dialURL, attempts), lastErr)
}

func (t *wsClientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	// Best effort close handshake
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *wsClientTransport) Name() string {
	return common.ProtocolWebSocket
}

func (t *wsClientTransport) Ping(ctx context.Context) error {
	// The protocol has no dedicated health method; a stats probe serves
	var out common.GetStatsResponse
	return t.call(ctx, "get_stats", nil, &out)
}

func (t *wsClientTransport) Put(ctx context.Context, key, value string) error {
	var out common.PutResponse
	if err := t.call(ctx, "put", common.NewPutRequest(key, value), &out); err != nil {
		return err
	}
	return transport.ServerError("put", out.Success, out.ErrorMessage)
}

func (t *wsClientTransport) Get(ctx context.Context, key string) (string, bool, error) {
	var out common.GetResponse
	if err := t.call(ctx, "get", common.NewGetRequest(key), &out); err != nil {
		return "", false, err
	}
	if !out.Found {
		return "", false, nil
	}
	return out.Value, true, nil
}

func (t *wsClientTransport) Delete(ctx context.Context, key string) error {
	var out common.DeleteResponse
	if err := t.call(ctx, "delete", common.NewDeleteRequest(key), &out); err != nil {
		return err
	}
	return transport.ServerError("delete", out.Success, out.ErrorMessage)
}

func (t *wsClientTransport) BatchPut(ctx context.Context, pairs []common.KeyValue) error {
	var out common.BatchPutResponse
	if err := t.call(ctx, "batch_put", common.NewBatchPutRequest(pairs), &out); err != nil {
		return err
	}
	return transport.ServerError("batch put", out.Success, out.ErrorMessage)
}

func (t *wsClientTransport) BatchGet(ctx context.Context, keys []string) ([]common.KeyValue, error) {
	var out common.BatchGetResponse
	if err := t.call(ctx, "batch_get", common.NewBatchGetRequest(keys), &out); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}

func (t *wsClientTransport) Scan(ctx context.Context, opts common.ScanOptions) ([]common.KeyValue, error) {
	var out common.BatchGetResponse
	if err := t.call(ctx, "scan", common.NewScanRequest(opts), &out); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}

func (t *wsClientTransport) PrefixScan(ctx context.Context, prefix string, limit int32) ([]common.KeyValue, error) {
	var out common.BatchGetResponse
	if err := t.call(ctx, "prefix_scan", common.NewPrefixScanRequest(prefix, limit), &out); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}

func (t *wsClientTransport) CreateSnapshot(ctx context.Context) (common.Snapshot, error) {
	var out common.CreateSnapshotResponse
	if err := t.call(ctx, "create_snapshot", nil, &out); err != nil {
		return common.Snapshot{}, err
	}
	return common.Snapshot{ID: out.SnapshotID}, nil
}

func (t *wsClientTransport) ReleaseSnapshot(ctx context.Context, snapshot common.Snapshot) error {
	var out common.ReleaseSnapshotResponse
	if err := t.call(ctx, "release_snapshot", common.NewReleaseSnapshotRequest(snapshot), &out); err != nil {
		return err
	}
	return transport.ServerError("release snapshot", out.Success, out.ErrorMessage)
}

func (t *wsClientTransport) GetAtSnapshot(ctx context.Context, key string, snapshot common.Snapshot) (string, bool, error) {
	var out common.GetAtSnapshotResponse
	if err := t.call(ctx, "get_at_snapshot", common.NewGetAtSnapshotRequest(key, snapshot), &out); err != nil {
		return "", false, err
	}
	if !out.Found {
		return "", false, nil
	}
	return out.Value, true, nil
}

func (t *wsClientTransport) Flush(ctx context.Context) error {
	var out common.FlushResponse
	if err := t.call(ctx, "flush", nil, &out); err != nil {
		return err
	}
	return transport.ServerError("flush", out.Success, out.ErrorMessage)
}

func (t *wsClientTransport) Compact(ctx context.Context) error {
	var out common.CompactResponse
	if err := t.call(ctx, "compact", nil, &out); err != nil {
		return err
	}
	return transport.ServerError("compact", out.Success, out.ErrorMessage)
}

func (t *wsClientTransport) GetStats(ctx context.Context) (common.DatabaseStats, error) {
	var out common.GetStatsResponse
	if err := t.call(ctx, "get_stats", nil, &out); err != nil {
		return common.DatabaseStats{}, err
	}
	return common.DatabaseStats{
		MemtableSize:    out.MemtableSize,
		WALSize:         out.WALSize,
		CacheHitRate:    out.CacheHitRate,
		ActiveSnapshots: out.ActiveSnapshots,
	}, nil
}

func (t *wsClientTransport) Subscribe(_ context.Context, _ string, _ bool) (<-chan common.SubscriptionEvent, error) {
	return nil, transport.ErrSubscribeNotSupported(t.Name())
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// call performs one request/response exchange on the connection
func (t *wsClientTransport) call(ctx context.Context, method string, params, out interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return common.NewConnectionError("websocket transport not connected", nil)
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Time{}
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return common.NewConnectionError("cannot set write deadline", err)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return common.NewConnectionError("cannot set read deadline", err)
	}

	if err := t.conn.WriteJSON(request{Method: method, Params: params}); err != nil {
		return translateError(err)
	}

	_, payload, err := t.conn.ReadMessage()
	if err != nil {
		return translateError(err)
	}

	var resp envelope
	if err := json.Unmarshal(payload, &resp); err != nil {
		return common.NewInternalError(fmt.Sprintf("malformed response frame: %v", err))
	}
	if !resp.Success {
		return common.NewInternalError(resp.Error)
	}
	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return common.NewInternalError(fmt.Sprintf("malformed response data: %v", err))
		}
	}
	return nil
}

// translateError converts a frame-level fault into the client error taxonomy
func translateError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.NewTimeoutError("request timed out", err)
	}
	if websocket.IsUnexpectedCloseError(err) {
		return common.NewConnectionError("connection closed by server", err)
	}
	return common.NewConnectionError("websocket transport failure", err)
}
