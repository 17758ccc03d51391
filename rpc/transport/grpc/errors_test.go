package grpc

import (
	"context"
	"io"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// TestKindFromCode tests the status code translation table
func TestKindFromCode(t *testing.T) {
	tests := []struct {
		code codes.Code
		want common.ErrorKind
	}{
		{codes.DeadlineExceeded, common.KindTimeout},
		{codes.Unavailable, common.KindConnection},
		{codes.Canceled, common.KindConnection},
		{codes.Aborted, common.KindConnection},
		{codes.Unauthenticated, common.KindAuthentication},
		{codes.PermissionDenied, common.KindPermission},
		{codes.InvalidArgument, common.KindInvalidArgument},
		{codes.OutOfRange, common.KindInvalidArgument},
		{codes.NotFound, common.KindNotFound},
		{codes.AlreadyExists, common.KindExists},
		{codes.Internal, common.KindInternal},
		{codes.Unknown, common.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := translateError(status.Error(tt.code, "detail"))
			if !common.IsKind(err, tt.want) {
				t.Errorf("translateError(%v) = %v, want kind %v", tt.code, err, tt.want)
			}
		})
	}
}

// TestTranslateError tests the non-status fault paths
func TestTranslateError(t *testing.T) {
	if !common.IsTimeout(translateError(context.DeadlineExceeded)) {
		t.Errorf("deadline exceeded must map to a timeout error")
	}
	if !common.IsConnection(translateError(io.EOF)) {
		t.Errorf("EOF must map to a connection error")
	}

	// The server's detail message must survive the translation
	err := translateError(status.Error(codes.NotFound, "unknown snapshot id 7"))
	if got := err.Error(); got == "" || !common.IsNotFound(err) {
		t.Errorf("translateError() = %v, want a not found error with detail", err)
	}
}

// TestJSONCodec tests the registered codec round trip
func TestJSONCodec(t *testing.T) {
	codec := jsonCodec{}
	if codec.Name() != CodecName {
		t.Fatalf("codec name = %q, want %q", codec.Name(), CodecName)
	}

	in := common.NewPutRequest("key", "value")
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := &common.PutRequest{}
	if err := codec.Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Key != "key" || out.Value != "value" {
		t.Errorf("round trip = %+v, want the original request", out)
	}
}
