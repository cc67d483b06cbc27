package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every failure the service can surface to a caller.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced session or message does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates malformed input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUpstreamTransport indicates the completion API was unreachable or timed out.
	ErrCodeUpstreamTransport ErrorCode = "UPSTREAM_TRANSPORT"
	// ErrCodeUpstreamProtocol indicates the completion API returned a non-2xx status.
	ErrCodeUpstreamProtocol ErrorCode = "UPSTREAM_PROTOCOL"
	// ErrCodeUpstreamDecode indicates the completion API response was missing expected fields.
	ErrCodeUpstreamDecode ErrorCode = "UPSTREAM_DECODE"
	// ErrCodeStoreFault indicates the transactional store failed.
	ErrCodeStoreFault ErrorCode = "STORE_FAULT"
	// ErrCodeUnexpected is the catch-all for anything not classified above.
	ErrCodeUnexpected ErrorCode = "UNEXPECTED"
)

// Error is a classified error carried across service boundaries.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Convenience constructors for the error taxonomy.

// NotFound creates a not-found error.
func NotFound(msg string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: msg}
}

// NotFoundf creates a not-found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: msg}
}

// UpstreamTransport creates a transport-level upstream error.
func UpstreamTransport(msg string, cause error) *Error {
	return &Error{Code: ErrCodeUpstreamTransport, Message: msg, Cause: cause}
}

// UpstreamProtocol creates a protocol-level upstream error carrying the
// upstream HTTP status.
func UpstreamProtocol(status int, msg string, cause error) *Error {
	return &Error{
		Code:    ErrCodeUpstreamProtocol,
		Message: fmt.Sprintf("completion API returned status %d: %s", status, msg),
		Cause:   cause,
	}
}

// UpstreamDecode creates a decode-level upstream error.
func UpstreamDecode(msg string) *Error {
	return &Error{Code: ErrCodeUpstreamDecode, Message: msg}
}

// StoreFault creates a store fault error.
func StoreFault(msg string, cause error) *Error {
	return &Error{Code: ErrCodeStoreFault, Message: msg, Cause: cause}
}

// Unexpected wraps anything that escaped classification.
func Unexpected(cause error) *Error {
	return &Error{Code: ErrCodeUnexpected, Message: "unexpected error", Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCodeFromError extracts the code from any error, falling back to the
// provided default when the error is unclassified.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return defaultCode
}

// IsUpstream reports whether err is any of the upstream error kinds.
func IsUpstream(err error) bool {
	code := GetCodeFromError(err, ErrCodeUnexpected)
	return code == ErrCodeUpstreamTransport || code == ErrCodeUpstreamProtocol || code == ErrCodeUpstreamDecode
}
