package pulsekit

import (
	"github.com/teracrafts/pulsekit-go/types"
)

// ErrorCode identifies a class of SDK error.
type ErrorCode = types.ErrorCode

// Error codes.
const (
	// Configuration errors: synchronous, never retried.
	ErrConfigMissingAPIKey         = types.ErrConfigMissingAPIKey
	ErrConfigMissingPersonalAPIKey = types.ErrConfigMissingPersonalAPIKey
	ErrConfigInvalidMessage        = types.ErrConfigInvalidMessage
	ErrConfigInvalidInterval       = types.ErrConfigInvalidInterval

	// Transport errors: exhausted through retries before surfacing.
	ErrNetwork           = types.ErrNetwork
	ErrNetworkTimeout    = types.ErrNetworkTimeout
	ErrNetworkRetryLimit = types.ErrNetworkRetryLimit
	ErrResponseStatus    = types.ErrResponseStatus

	// Lifecycle errors.
	ErrClientClosed = types.ErrClientClosed
)

// Error is the error type returned by all SDK operations.
type Error = types.Error

// NewError creates a new Error.
func NewError(code ErrorCode, message string) *Error {
	return types.NewError(code, message)
}

// NewErrorWithCause creates a new Error wrapping a cause.
func NewErrorWithCause(code ErrorCode, message string, cause error) *Error {
	return types.NewErrorWithCause(code, message, cause)
}

// IsRecoverable reports whether err is a transport error that a retry could
// resolve.
func IsRecoverable(err error) bool {
	return types.Recoverable(err)
}
