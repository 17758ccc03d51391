package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/websocket"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// startWS serves the WebSocket frontend on an httptest server. Each
// connection is handled by one goroutine in strict request/response order.
func (s *Server) startWS() {
	upgrader := websocket.Upgrader{EnableCompression: true}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		for {
			var frame struct {
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if err := conn.WriteJSON(s.dispatchWS(frame.Method, frame.Params)); err != nil {
				return
			}
		}
	})

	s.wsServer = httptest.NewServer(handler)
}

type wsReply struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func wsOK(data interface{}) wsReply { return wsReply{Success: true, Data: data} }

func wsFail(message string) wsReply { return wsReply{Success: false, Error: message} }

func wsDecode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// dispatchWS executes one method frame against the store
func (s *Server) dispatchWS(method string, params json.RawMessage) wsReply {
	st := s.store
	if msg := st.begin(); msg != "" {
		return wsFail(msg)
	}

	switch method {
	case "put":
		var req common.PutRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		st.put(req.Key, req.Value)
		return wsOK(common.PutResponse{Success: true})

	case "get":
		var req common.GetRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		value, found := st.get(req.Key)
		return wsOK(common.GetResponse{Found: found, Value: value})

	case "delete":
		var req common.DeleteRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		st.delete(req.Key)
		return wsOK(common.DeleteResponse{Success: true})

	case "batch_put":
		var req common.BatchPutRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		st.batchPut(req.Pairs)
		return wsOK(common.BatchPutResponse{Success: true})

	case "batch_get":
		var req common.BatchGetRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		pairs := st.batchGet(req.Keys)
		return wsOK(map[string]interface{}{"pairs": pairs, "count": len(pairs)})

	case "scan":
		var req common.ScanRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		pairs := st.scan(req.StartKey, req.EndKey, req.Limit)
		return wsOK(map[string]interface{}{"pairs": pairs, "count": len(pairs)})

	case "prefix_scan":
		var req common.PrefixScanRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		pairs := st.prefixScan(req.Prefix, req.Limit)
		return wsOK(map[string]interface{}{"pairs": pairs, "count": len(pairs)})

	case "create_snapshot":
		return wsOK(common.CreateSnapshotResponse{SnapshotID: st.createSnapshot()})

	case "release_snapshot":
		var req common.ReleaseSnapshotRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		if err := st.releaseSnapshot(req.SnapshotID); err != nil {
			return wsFail(err.Error())
		}
		return wsOK(common.ReleaseSnapshotResponse{Success: true})

	case "get_at_snapshot":
		var req common.GetAtSnapshotRequest
		if err := wsDecode(params, &req); err != nil {
			return wsFail("malformed params")
		}
		value, found, err := st.getAtSnapshot(req.Key, req.SnapshotID)
		if err != nil {
			return wsFail(err.Error())
		}
		return wsOK(common.GetAtSnapshotResponse{Found: found, Value: value})

	case "flush":
		st.flush()
		return wsOK(common.FlushResponse{Success: true})

	case "compact":
		st.compact()
		return wsOK(common.CompactResponse{Success: true})

	case "get_stats":
		stats := st.stats()
		return wsOK(common.GetStatsResponse{
			MemtableSize:    stats.MemtableSize,
			WALSize:         stats.WALSize,
			CacheHitRate:    stats.CacheHitRate,
			ActiveSnapshots: stats.ActiveSnapshots,
		})

	default:
		return wsFail("unknown method: " + method)
	}
}
