package common

// --------------------------------------------------------------------------
// Core Data Types
// --------------------------------------------------------------------------

// KeyValue represents a single key-value pair as stored by the server.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ScanOptions describes a single range scan request.
// StartKey/EndKey bound the range, Prefix restricts it to a common prefix
// (used by prefix scans), Limit caps the number of returned pairs and
// Reverse flips the iteration direction if the server supports it.
type ScanOptions struct {
	StartKey string `json:"start_key"`
	EndKey   string `json:"end_key"`
	Prefix   string `json:"prefix,omitempty"`
	Limit    int32  `json:"limit"`
	Reverse  bool   `json:"reverse,omitempty"`
}

// Snapshot is an opaque handle to a server-side point-in-time view.
// The client only holds the id; validity is tracked by the server.
type Snapshot struct {
	ID uint64 `json:"snapshot_id"`
}

// DatabaseStats is the summary returned by the GetStats admin call.
type DatabaseStats struct {
	MemtableSize    uint64  `json:"memtable_size"`
	WALSize         uint64  `json:"wal_size"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	ActiveSnapshots int32   `json:"active_snapshots"`
}

// Operation kinds reported in subscription events.
const (
	OpPut    = "PUT"
	OpDelete = "DELETE"
)

// SubscriptionEvent is one server-push change notification.
type SubscriptionEvent struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Operation string `json:"operation"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// --------------------------------------------------------------------------
// Wire Messages
//
// One request/response struct pair per logical operation. The shapes mirror
// the fixed kvdb.KVDBService contract; the same structs double as the HTTP
// JSON bodies and the WebSocket params/data payloads where the field sets
// coincide.
// --------------------------------------------------------------------------

type PutRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type PutResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type GetRequest struct {
	Key string `json:"key"`
}

type GetResponse struct {
	Found        bool   `json:"found"`
	Value        string `json:"value,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type DeleteRequest struct {
	Key string `json:"key"`
}

type DeleteResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type BatchPutRequest struct {
	Pairs []KeyValue `json:"pairs"`
}

type BatchPutResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type BatchGetRequest struct {
	Keys []string `json:"keys"`
}

type BatchGetResponse struct {
	Pairs        []KeyValue `json:"pairs"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

type ScanRequest struct {
	StartKey string `json:"start_key"`
	EndKey   string `json:"end_key"`
	Limit    int32  `json:"limit"`
}

type PrefixScanRequest struct {
	Prefix string `json:"prefix"`
	Limit  int32  `json:"limit"`
}

type CreateSnapshotRequest struct{}

type CreateSnapshotResponse struct {
	SnapshotID   uint64 `json:"snapshot_id"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type ReleaseSnapshotRequest struct {
	SnapshotID uint64 `json:"snapshot_id"`
}

type ReleaseSnapshotResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type GetAtSnapshotRequest struct {
	Key        string `json:"key"`
	SnapshotID uint64 `json:"snapshot_id"`
}

type GetAtSnapshotResponse struct {
	Found        bool   `json:"found"`
	Value        string `json:"value,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type FlushRequest struct{}

type FlushResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type CompactRequest struct{}

type CompactResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type GetStatsRequest struct{}

type GetStatsResponse struct {
	MemtableSize    uint64  `json:"memtable_size"`
	WALSize         uint64  `json:"wal_size"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	ActiveSnapshots int32   `json:"active_snapshots"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

type SubscribeRequest struct {
	KeyPattern     string `json:"key_pattern"`
	IncludeDeletes bool   `json:"include_deletes"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPutRequest creates a new Put request
func NewPutRequest(key, value string) *PutRequest {
	return &PutRequest{Key: key, Value: value}
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *GetRequest {
	return &GetRequest{Key: key}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *DeleteRequest {
	return &DeleteRequest{Key: key}
}

// NewBatchPutRequest creates a new BatchPut request
func NewBatchPutRequest(pairs []KeyValue) *BatchPutRequest {
	return &BatchPutRequest{Pairs: pairs}
}

// NewBatchGetRequest creates a new BatchGet request
func NewBatchGetRequest(keys []string) *BatchGetRequest {
	return &BatchGetRequest{Keys: keys}
}

// NewScanRequest creates a new Scan request from scan options
func NewScanRequest(opts ScanOptions) *ScanRequest {
	return &ScanRequest{StartKey: opts.StartKey, EndKey: opts.EndKey, Limit: opts.Limit}
}

// NewPrefixScanRequest creates a new PrefixScan request
func NewPrefixScanRequest(prefix string, limit int32) *PrefixScanRequest {
	return &PrefixScanRequest{Prefix: prefix, Limit: limit}
}

// NewReleaseSnapshotRequest creates a new ReleaseSnapshot request
func NewReleaseSnapshotRequest(snapshot Snapshot) *ReleaseSnapshotRequest {
	return &ReleaseSnapshotRequest{SnapshotID: snapshot.ID}
}

// NewGetAtSnapshotRequest creates a new GetAtSnapshot request
func NewGetAtSnapshotRequest(key string, snapshot Snapshot) *GetAtSnapshotRequest {
	return &GetAtSnapshotRequest{Key: key, SnapshotID: snapshot.ID}
}

// NewSubscribeRequest creates a new Subscribe request
func NewSubscribeRequest(pattern string, includeDeletes bool) *SubscribeRequest {
	return &SubscribeRequest{KeyPattern: pattern, IncludeDeletes: includeDeletes}
}
