package http

import (
	"net/http"
	"testing"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// TestStatusError tests the HTTP status translation table
func TestStatusError(t *testing.T) {
	tests := []struct {
		code int
		want common.ErrorKind
	}{
		{http.StatusRequestTimeout, common.KindTimeout},
		{http.StatusGatewayTimeout, common.KindTimeout},
		{http.StatusUnauthorized, common.KindAuthentication},
		{http.StatusForbidden, common.KindPermission},
		{http.StatusBadRequest, common.KindInvalidArgument},
		{http.StatusNotFound, common.KindNotFound},
		{http.StatusConflict, common.KindExists},
		{http.StatusBadGateway, common.KindConnection},
		{http.StatusServiceUnavailable, common.KindConnection},
		{http.StatusInternalServerError, common.KindInternal},
		{http.StatusTeapot, common.KindInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := statusError(tt.code, http.StatusText(tt.code), "detail")
			if !common.IsKind(err, tt.want) {
				t.Errorf("statusError(%d) = %v, want kind %v", tt.code, err, tt.want)
			}
		})
	}
}

// TestStatusErrorDetail tests that the response body is preferred over the
// bare status line
func TestStatusErrorDetail(t *testing.T) {
	err := statusError(http.StatusInternalServerError, "500 Internal Server Error", "disk on fire\n")
	if got := err.Error(); got != "internal error: disk on fire" {
		t.Errorf("statusError detail = %q, want the trimmed body", got)
	}

	err = statusError(http.StatusBadGateway, "502 Bad Gateway", "")
	if got := err.Error(); got != "connection error: 502 Bad Gateway" {
		t.Errorf("statusError without body = %q, want the status line", got)
	}
}

// TestKeyPath tests the escaping of keys in URL paths
func TestKeyPath(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"plain", "/kv/plain"},
		{"with space", "/kv/with%20space"},
		{"a/b", "/kv/a%2Fb"},
	}

	for _, tt := range tests {
		if got := keyPath(tt.key); got != tt.want {
			t.Errorf("keyPath(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

// TestClampPairs tests the limit guard on scan results
func TestClampPairs(t *testing.T) {
	pairs := []common.KeyValue{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	if got := clampPairs(pairs, 0); len(got) != 3 {
		t.Errorf("clampPairs with no limit = %d pairs, want 3", len(got))
	}
	if got := clampPairs(pairs, 2); len(got) != 2 {
		t.Errorf("clampPairs(2) = %d pairs, want 2", len(got))
	}
	if got := clampPairs(pairs, 5); len(got) != 3 {
		t.Errorf("clampPairs(5) = %d pairs, want 3", len(got))
	}
}
