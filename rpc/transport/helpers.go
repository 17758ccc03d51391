package transport

import (
	"fmt"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// ServerError converts an in-band server result into a client error.
// A non-empty detail message always wins over the success flag so the
// server-reported reason is preserved verbatim.
func ServerError(op string, success bool, errorMessage string) error {
	if errorMessage != "" {
		return common.NewInternalError(errorMessage)
	}
	if !success {
		return common.NewInternalError(fmt.Sprintf("%s operation failed", op))
	}
	return nil
}

// ErrSubscribeNotSupported is the capability error raised by transports
// without streaming support. Raised before any wire call is attempted.
func ErrSubscribeNotSupported(name string) error {
	return common.NewInvalidArgumentError(
		fmt.Sprintf("subscriptions are not supported over the %s transport", name))
}
