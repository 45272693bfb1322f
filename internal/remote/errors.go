// Package remote issues single outbound HTTP calls and classifies their
// failures.
package remote

import (
	"errors"
	"fmt"
)

// Kind classifies a remote-call failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotConfigured means a credential is missing; detected before any I/O.
	KindNotConfigured
	// KindTimeout means the per-call deadline fired and the call was aborted.
	KindTimeout
	// KindCanceled means the caller canceled the call.
	KindCanceled
	// KindHTTP is a non-2xx response.
	KindHTTP
	// KindNetwork is a transport-level failure.
	KindNetwork
	// KindMalformed is a payload of unexpected shape.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindHTTP:
		return "http_error"
	case KindNetwork:
		return "network_error"
	case KindMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is the failure value produced by every remote call.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, only for KindHTTP
	Message string
	Err     error
}

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

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a failed call is worth another attempt.
// Only HTTP and network failures qualify; timeouts and cancellations
// propagate immediately.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindHTTP, KindNetwork:
		return true
	}
	return false
}

// NotConfigured returns a KindNotConfigured error.
func NotConfigured(msg string) *Error {
	return &Error{Kind: KindNotConfigured, Message: msg}
}

// HTTPStatus returns a KindHTTP error for the given status.
func HTTPStatus(status int, msg string) *Error {
	return &Error{Kind: KindHTTP, Status: status, Message: msg}
}

// Malformed returns a KindMalformed error.
func Malformed(msg string, err error) *Error {
	return &Error{Kind: KindMalformed, Message: msg, Err: err}
}

// Canceled wraps a context error as KindCanceled.
func Canceled(err error) *Error {
	return &Error{Kind: KindCanceled, Err: err}
}
