// Package types contains shared types for the pulsekit SDK: the logging
// interface, the coded error type, and the normalized wire message shape.
// Internal packages depend on it to avoid import cycles with the public API.
package types

// ErrorCode identifies a class of SDK error.
type ErrorCode string

// Error codes.
const (
	// Configuration errors: fail fast at the call site, never retried.
	ErrConfigMissingAPIKey         ErrorCode = "CONFIG_MISSING_API_KEY"
	ErrConfigMissingPersonalAPIKey ErrorCode = "CONFIG_MISSING_PERSONAL_API_KEY"
	ErrConfigInvalidMessage        ErrorCode = "CONFIG_INVALID_MESSAGE"
	ErrConfigInvalidInterval       ErrorCode = "CONFIG_INVALID_INTERVAL"

	// Transport errors: retried per RetryPolicy, then surfaced.
	ErrNetwork           ErrorCode = "NETWORK_ERROR"
	ErrNetworkTimeout    ErrorCode = "NETWORK_TIMEOUT"
	ErrNetworkRetryLimit ErrorCode = "NETWORK_RETRY_LIMIT"
	ErrResponseStatus    ErrorCode = "RESPONSE_STATUS"

	// Lifecycle errors.
	ErrClientClosed ErrorCode = "CLIENT_CLOSED"
)

// Error is the error type returned by all SDK operations.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return "[" + string(e.Code) + "] " + e.Message + ": " + e.Cause.Error()
	}
	return "[" + string(e.Code) + "] " + e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether a retry of the failed operation could succeed.
// Network failures and timeouts are recoverable; HTTP responses are
// recoverable only for 429 and server errors.
func (e *Error) Recoverable() bool {
	switch e.Code {
	case ErrNetwork, ErrNetworkTimeout:
		return true
	case ErrResponseStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// NewError creates a new Error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithCause creates a new Error wrapping a cause.
func NewErrorWithCause(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// StatusError creates an Error for a non-2xx HTTP response.
func StatusError(statusCode int, message string) *Error {
	return &Error{Code: ErrResponseStatus, Message: message, StatusCode: statusCode}
}

// Recoverable reports whether err is a recoverable SDK error.
func Recoverable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Recoverable()
	}
	return false
}
