package common

import (
	"strings"
	"testing"
)

// TestDefaultClientConfig tests that the defaults form a valid configuration
func TestDefaultClientConfig(t *testing.T) {
	config := DefaultClientConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("default configuration must validate, got: %v", err)
	}
	if config.Protocol != ProtocolGRPC {
		t.Errorf("default protocol = %q, want %q", config.Protocol, ProtocolGRPC)
	}
	if config.ServerAddress != "localhost:50051" {
		t.Errorf("default server address = %q, want localhost:50051", config.ServerAddress)
	}
}

// TestConfigValidate tests the rejection of unusable configurations
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ClientConfig)
		wantOK bool
	}{
		{"defaults", func(c *ClientConfig) {}, true},
		{"http protocol", func(c *ClientConfig) { c.Protocol = ProtocolHTTP }, true},
		{"ws protocol", func(c *ClientConfig) { c.Protocol = ProtocolWebSocket }, true},
		{"unknown protocol", func(c *ClientConfig) { c.Protocol = "carrier-pigeon" }, false},
		{"empty address", func(c *ClientConfig) { c.ServerAddress = "" }, false},
		{"pool bounds inverted", func(c *ClientConfig) { c.MinConnections = 20 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultClientConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err == nil) != tt.wantOK {
				t.Errorf("Validate() = %v, wantOK = %v", err, tt.wantOK)
			}
		})
	}
}

// TestHTTPBase tests the derivation of the HTTP endpoint from the server
// address
func TestHTTPBase(t *testing.T) {
	config := DefaultClientConfig()

	base, err := config.HTTPBase()
	if err != nil {
		t.Fatalf("HTTPBase() failed: %v", err)
	}
	if base != "http://localhost:51051" {
		t.Errorf("HTTPBase() = %q, want http://localhost:51051", base)
	}

	// An explicit override wins and is normalized
	config.HTTPBaseURL = "http://db.example.com:8080/"
	base, err = config.HTTPBase()
	if err != nil {
		t.Fatalf("HTTPBase() with override failed: %v", err)
	}
	if base != "http://db.example.com:8080" {
		t.Errorf("HTTPBase() = %q, want http://db.example.com:8080", base)
	}

	// An address without a port cannot be derived from
	config.HTTPBaseURL = ""
	config.ServerAddress = "localhost"
	if _, err := config.HTTPBase(); err == nil {
		t.Errorf("expected an error for an address without a port")
	}
}

// TestWebSocketURL tests the dial URL construction
func TestWebSocketURL(t *testing.T) {
	config := DefaultClientConfig()
	if got := config.WebSocketURL(); got != "ws://localhost:50051" {
		t.Errorf("WebSocketURL() = %q, want ws://localhost:50051", got)
	}

	config.ServerAddress = "wss://db.example.com:443"
	if got := config.WebSocketURL(); got != "wss://db.example.com:443" {
		t.Errorf("WebSocketURL() = %q, want the address unchanged", got)
	}
}

// TestConfigString tests that the formatted output names the active protocol
func TestConfigString(t *testing.T) {
	config := DefaultClientConfig()
	out := config.String()

	for _, want := range []string{"Server Address", "localhost:50051", "grpc"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() is missing %q:\n%s", want, out)
		}
	}
}
