package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kvdb-io/kvdb-go/rpc/common"
	"github.com/kvdb-io/kvdb-go/rpc/transport"
)

var Logger = common.GetLogger("transport/http")

// NewHTTPClientTransport creates a new HTTP transport adapter
func NewHTTPClientTransport() transport.IKVClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	baseURL string
	client  *http.Client
	config  common.ClientConfig
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IKVClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	base, err := config.HTTPBase()
	if err != nil {
		return common.NewConnectionError("invalid http configuration", err)
	}

	t.config = config
	t.baseURL = base
	t.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        config.MaxConnections,
			MaxIdleConnsPerHost: config.MaxConnections,
			IdleConnTimeout:     config.ConnectionIdleTimeout,
			DisableCompression:  !config.EnableCompression,
		},
	}

	// Verify the endpoint is reachable. Setup retries only, never
	// per-request retries.
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
		err := t.Ping(ctx)
		cancel()
		if err == nil {
			Logger.Infof("connected to %s (attempt %d/%d)", base, i+1, attempts)
			return nil
		}
		lastErr = err
		Logger.Warnf("connection attempt %d/%d to %s failed: %v", i+1, attempts, base, err)
	}

	return common.NewConnectionError(
		fmt.Sprintf("failed to connect to %s after %d attempts", base, attempts), lastErr)
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	return nil
}

func (t *httpClientTransport) Name() string {
	return common.ProtocolHTTP
}

func (t *httpClientTransport) Ping(ctx context.Context) error {
	_, err := t.do(ctx, http.MethodGet, "/health", nil, nil, nil, false)
	return err
}

func (t *httpClientTransport) Put(ctx context.Context, key, value string) error {
	body := struct {
		Value string `json:"value"`
	}{Value: value}
	_, err := t.do(ctx, http.MethodPut, keyPath(key), nil, body, nil, false)
	return err
}

func (t *httpClientTransport) Get(ctx context.Context, key string) (string, bool, error) {
	var out struct {
		Value string `json:"value"`
	}
	notFound, err := t.do(ctx, http.MethodGet, keyPath(key), nil, nil, &out, true)
	if err != nil {
		return "", false, err
	}
	if notFound {
		return "", false, nil
	}
	return out.Value, true, nil
}

func (t *httpClientTransport) Delete(ctx context.Context, key string) error {
	_, err := t.do(ctx, http.MethodDelete, keyPath(key), nil, nil, nil, false)
	return err
}

func (t *httpClientTransport) BatchPut(ctx context.Context, pairs []common.KeyValue) error {
	_, err := t.do(ctx, http.MethodPost, "/batch/put", nil, common.NewBatchPutRequest(pairs), nil, false)
	return err
}

func (t *httpClientTransport) BatchGet(ctx context.Context, keys []string) ([]common.KeyValue, error) {
	var out common.BatchGetResponse
	if _, err := t.do(ctx, http.MethodPost, "/batch/get", nil, common.NewBatchGetRequest(keys), &out, false); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}

func (t *httpClientTransport) Scan(ctx context.Context, opts common.ScanOptions) ([]common.KeyValue, error) {
	query := url.Values{}
	query.Set("start_key", opts.StartKey)
	query.Set("end_key", opts.EndKey)
	query.Set("limit", strconv.Itoa(int(opts.Limit)))

	var out common.BatchGetResponse
	if _, err := t.do(ctx, http.MethodGet, "/scan", query, nil, &out, false); err != nil {
		return nil, err
	}
	return clampPairs(out.Pairs, opts.Limit), nil
}

func (t *httpClientTransport) PrefixScan(ctx context.Context, prefix string, limit int32) ([]common.KeyValue, error) {
	query := url.Values{}
	query.Set("prefix", prefix)
	query.Set("limit", strconv.Itoa(int(limit)))

	var out common.BatchGetResponse
	if _, err := t.do(ctx, http.MethodGet, "/prefix_scan", query, nil, &out, false); err != nil {
		return nil, err
	}
	return clampPairs(out.Pairs, limit), nil
}

func (t *httpClientTransport) CreateSnapshot(ctx context.Context) (common.Snapshot, error) {
	var out common.CreateSnapshotResponse
	if _, err := t.do(ctx, http.MethodPost, "/snapshot", nil, nil, &out, false); err != nil {
		return common.Snapshot{}, err
	}
	return common.Snapshot{ID: out.SnapshotID}, nil
}

func (t *httpClientTransport) ReleaseSnapshot(ctx context.Context, snapshot common.Snapshot) error {
	_, err := t.do(ctx, http.MethodDelete, fmt.Sprintf("/snapshot/%d", snapshot.ID), nil, nil, nil, false)
	return err
}

func (t *httpClientTransport) GetAtSnapshot(ctx context.Context, key string, snapshot common.Snapshot) (string, bool, error) {
	var out struct {
		Value string `json:"value"`
	}
	path := fmt.Sprintf("/snapshot/%d/kv/%s", snapshot.ID, url.PathEscape(key))
	notFound, err := t.do(ctx, http.MethodGet, path, nil, nil, &out, true)
	if err != nil {
		return "", false, err
	}
	if notFound {
		return "", false, nil
	}
	return out.Value, true, nil
}

func (t *httpClientTransport) Flush(ctx context.Context) error {
	_, err := t.do(ctx, http.MethodPost, "/admin/flush", nil, nil, nil, false)
	return err
}

func (t *httpClientTransport) Compact(ctx context.Context) error {
	_, err := t.do(ctx, http.MethodPost, "/admin/compact", nil, nil, nil, false)
	return err
}

func (t *httpClientTransport) GetStats(ctx context.Context) (common.DatabaseStats, error) {
	var out common.DatabaseStats
	if _, err := t.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &out, false); err != nil {
		return common.DatabaseStats{}, err
	}
	return out, nil
}

func (t *httpClientTransport) Subscribe(_ context.Context, _ string, _ bool) (<-chan common.SubscriptionEvent, error) {
	return nil, transport.ErrSubscribeNotSupported(t.Name())
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// keyPath builds the /kv/{key} path for a key
func keyPath(key string) string {
	return "/kv/" + url.PathEscape(key)
}

// clampPairs bounds a scan result to the requested limit. The server
// applies the limit itself; this only guards against over-delivery.
func clampPairs(pairs []common.KeyValue, limit int32) []common.KeyValue {
	if limit > 0 && int32(len(pairs)) > limit {
		return pairs[:limit]
	}
	return pairs
}

// do performs one HTTP round trip. A 404 response is reported as
// notFound=true when allow404 is set (read operations); every other non-2xx
// status raises a typed error carrying the response detail.
func (t *httpClientTransport) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, allow404 bool) (notFound bool, err error) {
	if t.client == nil {
		return false, common.NewConnectionError("http transport not connected", nil)
	}

	requestURL := t.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, common.NewInvalidArgumentError(fmt.Sprintf("cannot encode request body: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return false, common.NewInvalidArgumentError(fmt.Sprintf("cannot build request: %v", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return false, translateError(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			Logger.Errorf("failed to close response body: %v", cerr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound && allow404 {
		return true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, statusError(resp.StatusCode, resp.Status, string(detail))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, common.NewInternalError(fmt.Sprintf("malformed response body: %v", err))
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return false, nil
}

// translateError converts a round-trip fault into the client error taxonomy
func translateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewTimeoutError("request deadline exceeded", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return common.NewTimeoutError("request timed out", err)
	}
	return common.NewConnectionError("http transport failure", err)
}

// statusError maps an HTTP failure status to an error kind, carrying the
// response body as the detail message
func statusError(code int, status, detail string) error {
	message := strings.TrimSpace(detail)
	if message == "" {
		message = status
	}

	var kind common.ErrorKind
	switch {
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		kind = common.KindTimeout
	case code == http.StatusUnauthorized:
		kind = common.KindAuthentication
	case code == http.StatusForbidden:
		kind = common.KindPermission
	case code == http.StatusBadRequest:
		kind = common.KindInvalidArgument
	case code == http.StatusNotFound:
		kind = common.KindNotFound
	case code == http.StatusConflict:
		kind = common.KindExists
	case code == http.StatusServiceUnavailable || code == http.StatusBadGateway:
		kind = common.KindConnection
	default:
		kind = common.KindInternal
	}
	return common.NewError(kind, message, nil)
}
