package rpctest

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"time"

	"google.golang.org/grpc"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// Server is an in-memory KVDB server speaking all supported protocols. All
// frontends share one store, so data written over one protocol is visible
// over the others.
type Server struct {
	store *store

	grpcAddr   string
	grpcServer *grpc.Server
	httpServer *httptest.Server
	wsServer   *httptest.Server
}

// StartServer starts a fake server on loopback listeners with ephemeral
// ports. Callers must Close it when done.
func StartServer() (*Server, error) {
	s := &Server{store: newStore()}
	if err := s.startGRPC(); err != nil {
		return nil, fmt.Errorf("cannot start grpc frontend: %v", err)
	}
	s.startHTTP()
	s.startWS()
	return s, nil
}

// Close shuts down all frontends
func (s *Server) Close() {
	s.grpcServer.Stop()
	s.httpServer.Close()
	s.wsServer.Close()
}

// GRPCAddr returns the host:port of the gRPC frontend
func (s *Server) GRPCAddr() string {
	return s.grpcAddr
}

// HTTPURL returns the base URL of the HTTP frontend
func (s *Server) HTTPURL() string {
	return s.httpServer.URL
}

// WSAddr returns the host:port of the WebSocket frontend
func (s *Server) WSAddr() string {
	return strings.TrimPrefix(s.wsServer.URL, "http://")
}

// ClientConfig returns a client configuration pointed at the fake server for
// the given protocol. Retries are disabled so failure tests stay fast.
func (s *Server) ClientConfig(protocol string) common.ClientConfig {
	config := common.DefaultClientConfig()
	config.Protocol = protocol
	config.MaxRetries = 1
	config.ConnectionTimeout = 2 * time.Second
	config.RequestTimeout = 5 * time.Second

	switch protocol {
	case common.ProtocolGRPC:
		config.ServerAddress = s.grpcAddr
	case common.ProtocolHTTP:
		config.ServerAddress = s.grpcAddr
		config.HTTPBaseURL = s.httpServer.URL
	case common.ProtocolWebSocket:
		config.ServerAddress = s.WSAddr()
	}
	return config
}

// SetDelay makes every subsequent operation sleep for d before answering.
// Used to provoke request timeouts.
func (s *Server) SetDelay(d time.Duration) {
	s.store.mu.Lock()
	s.store.delay = d
	s.store.mu.Unlock()
}

// FailNext makes the next operation fail with the given server-side message
func (s *Server) FailNext(message string) {
	s.store.mu.Lock()
	s.store.failNext = message
	s.store.mu.Unlock()
}

// Put seeds a key-value pair directly, bypassing the wire
func (s *Server) Put(key, value string) {
	s.store.put(key, value)
}

// Get reads a key directly, bypassing the wire
func (s *Server) Get(key string) (string, bool) {
	return s.store.get(key)
}

// Flushes returns the number of flush operations the server has handled
func (s *Server) Flushes() int {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.flushes
}

// Compactions returns the number of compactions the server has handled
func (s *Server) Compactions() int {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.compactions
}
