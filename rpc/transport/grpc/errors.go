package grpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// translateError converts a gRPC transport fault into the client error
// taxonomy, preserving the server-supplied detail message.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewTimeoutError("request deadline exceeded", err)
	}
	if errors.Is(err, io.EOF) {
		return common.NewConnectionError("stream closed by server", err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return common.NewConnectionError("grpc transport failure", err)
	}
	return common.NewError(kindFromCode(st.Code()), st.Message(), err)
}

// kindFromCode maps a gRPC status code to an error kind
func kindFromCode(code codes.Code) common.ErrorKind {
	switch code {
	case codes.DeadlineExceeded:
		return common.KindTimeout
	case codes.Unavailable, codes.Canceled, codes.Aborted:
		return common.KindConnection
	case codes.Unauthenticated:
		return common.KindAuthentication
	case codes.PermissionDenied:
		return common.KindPermission
	case codes.InvalidArgument, codes.OutOfRange:
		return common.KindInvalidArgument
	case codes.NotFound:
		return common.KindNotFound
	case codes.AlreadyExists:
		return common.KindExists
	default:
		return common.KindInternal
	}
}
