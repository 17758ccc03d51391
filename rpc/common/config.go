package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Protocol Selection
// --------------------------------------------------------------------------

// Supported transport protocols. The protocol is selected once at client
// construction; all operations are dispatched to the matching adapter.
const (
	ProtocolGRPC      = "grpc"
	ProtocolHTTP      = "http"
	ProtocolWebSocket = "ws"
)

// The HTTP endpoint conventionally listens on the gRPC port + 1000
// (e.g. 50051 -> 51051). Used when no explicit HTTPBaseURL is configured.
const httpPortOffset = 1000

// --------------------------------------------------------------------------
// Client Configuration
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for a KVDB client.
// The configuration is immutable after client construction.
type ClientConfig struct {
	// ServerAddress is the host:port of the KVDB server (gRPC endpoint)
	ServerAddress string
	// Protocol selects the transport adapter: "grpc", "http" or "ws"
	Protocol string

	// ConnectionTimeout bounds transport setup and verification
	ConnectionTimeout time.Duration
	// RequestTimeout bounds every single blocking operation
	RequestTimeout time.Duration
	// MaxRetries is the number of connection setup attempts. It is a
	// transport concern and is never applied per logical request.
	MaxRetries int

	// EnableCompression toggles wire compression where the transport
	// supports it (gzip for gRPC, permessage-deflate for WebSocket)
	EnableCompression bool

	// Connection pool parameters (HTTP transport)
	MaxConnections        int
	MinConnections        int
	ConnectionIdleTimeout time.Duration

	// Message size caps (gRPC transport)
	MaxRecvMsgSize int
	MaxSendMsgSize int

	// HTTPBaseURL overrides the derived HTTP endpoint
	HTTPBaseURL string

	// AsyncLimit bounds the number of concurrently executing async calls
	AsyncLimit int

	// LogLevel is one of debug, info, warn, error
	LogLevel string
}

// DefaultClientConfig returns the default client configuration. The values
// mirror the server's shipped defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerAddress:         "localhost:50051",
		Protocol:              ProtocolGRPC,
		ConnectionTimeout:     5 * time.Second,
		RequestTimeout:        30 * time.Second,
		MaxRetries:            3,
		EnableCompression:     true,
		MaxConnections:        10,
		MinConnections:        2,
		ConnectionIdleTimeout: 60 * time.Second,
		MaxRecvMsgSize:        64 * 1024 * 1024,
		MaxSendMsgSize:        64 * 1024 * 1024,
		AsyncLimit:            10,
		LogLevel:              "info",
	}
}

// Validate checks the configuration for values the client cannot work with
func (c *ClientConfig) Validate() error {
	switch c.Protocol {
	case ProtocolGRPC, ProtocolHTTP, ProtocolWebSocket:
	default:
		return fmt.Errorf("unsupported protocol: %q (must be one of %s, %s, %s)",
			c.Protocol, ProtocolGRPC, ProtocolHTTP, ProtocolWebSocket)
	}
	if c.ServerAddress == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.MaxConnections > 0 && c.MinConnections > c.MaxConnections {
		return fmt.Errorf("min connections (%d) exceeds max connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}

// HTTPBase returns the base URL for the HTTP transport. If no override is
// configured it is derived from ServerAddress using the conventional port
// offset.
func (c *ClientConfig) HTTPBase() (string, error) {
	if c.HTTPBaseURL != "" {
		return strings.TrimRight(c.HTTPBaseURL, "/"), nil
	}

	host, portStr, err := net.SplitHostPort(c.ServerAddress)
	if err != nil {
		return "", fmt.Errorf("cannot derive http base url from %q: %v", c.ServerAddress, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("cannot derive http base url from %q: %v", c.ServerAddress, err)
	}

	return fmt.Sprintf("http://%s:%d", host, port+httpPortOffset), nil
}

// WebSocketURL returns the dial URL for the WebSocket transport
func (c *ClientConfig) WebSocketURL() string {
	if strings.HasPrefix(c.ServerAddress, "ws://") || strings.HasPrefix(c.ServerAddress, "wss://") {
		return c.ServerAddress
	}
	return "ws://" + c.ServerAddress
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Server Address", c.ServerAddress)
	addField("Protocol", c.Protocol)
	addField("Connection Timeout", c.ConnectionTimeout.String())
	addField("Request Timeout", c.RequestTimeout.String())
	addField("Max Retries", strconv.Itoa(c.MaxRetries))
	addField("Compression", fmt.Sprintf("%t", c.EnableCompression))
	addField("Async Limit", strconv.Itoa(c.AsyncLimit))

	if c.Protocol == ProtocolHTTP {
		addSection("HTTP")
		if base, err := c.HTTPBase(); err == nil {
			addField("Base URL", base)
		}
		addField("Max Connections", strconv.Itoa(c.MaxConnections))
		addField("Min Connections", strconv.Itoa(c.MinConnections))
		addField("Idle Timeout", c.ConnectionIdleTimeout.String())
	}

	if c.Protocol == ProtocolGRPC {
		addSection("gRPC")
		addField("Max Recv Msg Size", strconv.Itoa(c.MaxRecvMsgSize))
		addField("Max Send Msg Size", strconv.Itoa(c.MaxSendMsgSize))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
