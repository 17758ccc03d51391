package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// startHTTP serves the REST frontend on an httptest server
func (s *Server) startHTTP() {
	mux := http.NewServeMux()
	st := s.store

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	// begin handles delay and failure injection for one request. Returns
	// false if the request was answered with the injected failure.
	begin := func(w http.ResponseWriter) bool {
		if msg := st.begin(); msg != "" {
			http.Error(w, msg, http.StatusInternalServerError)
			return false
		}
		return true
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("PUT /kv/{key}", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		var body struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
		st.put(r.PathValue("key"), body.Value)
		writeJSON(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("GET /kv/{key}", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		value, found := st.get(r.PathValue("key"))
		if !found {
			http.Error(w, "key not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"value": value})
	})

	mux.HandleFunc("DELETE /kv/{key}", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		st.delete(r.PathValue("key"))
		writeJSON(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("POST /batch/put", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		var req common.BatchPutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
		st.batchPut(req.Pairs)
		writeJSON(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("POST /batch/get", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		var req common.BatchGetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
		writeJSON(w, common.BatchGetResponse{Pairs: st.batchGet(req.Keys)})
	})

	mux.HandleFunc("GET /scan", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		pairs := st.scan(r.URL.Query().Get("start_key"), r.URL.Query().Get("end_key"), int32(limit))
		writeJSON(w, common.BatchGetResponse{Pairs: pairs})
	})

	mux.HandleFunc("GET /prefix_scan", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		pairs := st.prefixScan(r.URL.Query().Get("prefix"), int32(limit))
		writeJSON(w, common.BatchGetResponse{Pairs: pairs})
	})

	mux.HandleFunc("POST /snapshot", func(w http.ResponseWriter, _ *http.Request) {
		if !begin(w) {
			return
		}
		writeJSON(w, map[string]uint64{"snapshot_id": st.createSnapshot()})
	})

	mux.HandleFunc("DELETE /snapshot/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "malformed snapshot id", http.StatusBadRequest)
			return
		}
		if err := st.releaseSnapshot(id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("GET /snapshot/{id}/kv/{key}", func(w http.ResponseWriter, r *http.Request) {
		if !begin(w) {
			return
		}
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "malformed snapshot id", http.StatusBadRequest)
			return
		}
		value, found, err := st.getAtSnapshot(r.PathValue("key"), id)
		if err != nil || !found {
			http.Error(w, "key not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"value": value})
	})

	mux.HandleFunc("POST /admin/flush", func(w http.ResponseWriter, _ *http.Request) {
		if !begin(w) {
			return
		}
		st.flush()
		writeJSON(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("POST /admin/compact", func(w http.ResponseWriter, _ *http.Request) {
		if !begin(w) {
			return
		}
		st.compact()
		writeJSON(w, map[string]bool{"success": true})
	})

	mux.HandleFunc("GET /admin/stats", func(w http.ResponseWriter, _ *http.Request) {
		if !begin(w) {
			return
		}
		writeJSON(w, st.stats())
	})

	s.httpServer = httptest.NewServer(mux)
}
