package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestErrorKindMatching tests that errors.Is matches on the kind regardless
// of message and cause
func TestErrorKindMatching(t *testing.T) {
	base := NewTimeoutError("request timed out", context.DeadlineExceeded)

	if !errors.Is(base, &Error{Kind: KindTimeout}) {
		t.Errorf("expected kind match for KindTimeout")
	}
	if errors.Is(base, &Error{Kind: KindConnection}) {
		t.Errorf("unexpected kind match for KindConnection")
	}

	// Matching must survive wrapping
	wrapped := fmt.Errorf("operation failed: %w", base)
	if !IsTimeout(wrapped) {
		t.Errorf("expected IsTimeout to match the wrapped error")
	}
}

// TestErrorUnwrap tests that the cause chain is preserved
func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewConnectionError("cannot reach server", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected the cause to be found in the chain")
	}
}

// TestKindOf tests kind extraction for typed and foreign errors
func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantOK   bool
	}{
		{"timeout", NewTimeoutError("t", nil), KindTimeout, true},
		{"connection", NewConnectionError("c", nil), KindConnection, true},
		{"invalid argument", NewInvalidArgumentError("i"), KindInvalidArgument, true},
		{"internal", NewInternalError("x"), KindInternal, true},
		{"wrapped", fmt.Errorf("ctx: %w", NewError(KindNotFound, "nf", nil)), KindNotFound, true},
		{"foreign", errors.New("plain"), KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			if kind != tt.wantKind || ok != tt.wantOK {
				t.Errorf("KindOf() = (%v, %v), want (%v, %v)", kind, ok, tt.wantKind, tt.wantOK)
			}
		})
	}
}

// TestErrorMessage tests the rendered error text for the message/cause
// combinations
func TestErrorMessage(t *testing.T) {
	cause := errors.New("eof")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message and cause", NewError(KindConnection, "send failed", cause), "connection error: send failed: eof"},
		{"message only", NewError(KindTimeout, "too slow", nil), "timeout error: too slow"},
		{"cause only", NewError(KindInternal, "", cause), "internal error: eof"},
		{"bare kind", NewError(KindPermission, "", nil), "permission error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWrapContextError tests the translation of context termination
func TestWrapContextError(t *testing.T) {
	if WrapContextError(nil) != nil {
		t.Errorf("nil must pass through unchanged")
	}

	if !IsTimeout(WrapContextError(context.DeadlineExceeded)) {
		t.Errorf("deadline exceeded must map to a timeout error")
	}
	if !IsConnection(WrapContextError(context.Canceled)) {
		t.Errorf("cancellation must map to a connection error")
	}

	// Typed errors must not be re-wrapped
	typed := NewInvalidArgumentError("bad key")
	if WrapContextError(typed) != typed {
		t.Errorf("typed errors must pass through unchanged")
	}
}
