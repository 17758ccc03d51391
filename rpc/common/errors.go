package common

import (
	"context"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

// ErrorKind classifies a client error. Every error raised by the SDK carries
// exactly one kind; callers branch on the kind, never on message text.
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindConnection
	KindTimeout
	KindAuthentication
	KindPermission
	KindInvalidArgument
	KindNotFound
	KindExists
)

// String returns the string representation of an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindTimeout:
		return "timeout error"
	case KindAuthentication:
		return "authentication error"
	case KindPermission:
		return "permission error"
	case KindInvalidArgument:
		return "invalid argument error"
	case KindNotFound:
		return "resource not found error"
	case KindExists:
		return "resource exists error"
	default:
		return "internal error"
	}
}

// Error is the single error type raised by the SDK. It preserves the
// server-supplied or transport-supplied detail message and wraps the
// underlying cause where one exists.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality, so errors.Is(err, &Error{Kind: k}) matches any
// error of that kind regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new typed error
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// NewConnectionError creates a new connection error
func NewConnectionError(message string, cause error) *Error {
	return NewError(KindConnection, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *Error {
	return NewError(KindTimeout, message, cause)
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *Error {
	return NewError(KindInvalidArgument, message, nil)
}

// NewInternalError creates a new internal error carrying the server-reported
// detail message
func NewInternalError(message string) *Error {
	return NewError(KindInternal, message, nil)
}

// --------------------------------------------------------------------------
// Predicates
// --------------------------------------------------------------------------

// KindOf returns the kind of a client error, or KindInternal and false if
// err is not an SDK error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindInternal, false
}

// IsKind reports whether err is an SDK error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsTimeout reports whether err is a timeout error
func IsTimeout(err error) bool { return IsKind(err, KindTimeout) }

// IsConnection reports whether err is a connection error
func IsConnection(err error) bool { return IsKind(err, KindConnection) }

// IsNotFound reports whether err is a resource not found error
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsInvalidArgument reports whether err is an invalid argument error
func IsInvalidArgument(err error) bool { return IsKind(err, KindInvalidArgument) }

// --------------------------------------------------------------------------
// Context Helper
// --------------------------------------------------------------------------

// WrapContextError translates context termination into the typed taxonomy.
// A nil error or an error that is already typed passes through unchanged.
func WrapContextError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewConnectionError("request cancelled", err)
	}
	return err
}
