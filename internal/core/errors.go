// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
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

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// LLM errors
	ErrUnknownModel   = &Error{Code: "UNKNOWN_MODEL", Message: "unknown model identifier"}
	ErrNoMessages     = &Error{Code: "NO_MESSAGES", Message: "conversation has no messages"}
	ErrNoJSON         = &Error{Code: "NO_JSON", Message: "no valid JSON found in response"}
	ErrCodeBlockJSON  = &Error{Code: "CODE_BLOCK_JSON", Message: "failed to parse JSON from code block"}
	ErrProviderFailed = &Error{Code: "PROVIDER_FAILED", Message: "provider request failed"}

	// Storage errors
	ErrStorageFailed  = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}
	ErrObjectNotFound = &Error{Code: "OBJECT_NOT_FOUND", Message: "object not found"}
	ErrInvalidKey     = &Error{Code: "INVALID_KEY", Message: "invalid object key"}

	// Email errors
	ErrEmailFailed = &Error{Code: "EMAIL_FAILED", Message: "sending email failed"}

	// Request errors
	ErrValidation = &Error{Code: "VALIDATION_FAILED", Message: "validation failed"}

	// Auth errors
	ErrUnauthorized    = &Error{Code: "UNAUTHORIZED", Message: "unauthorized"}
	ErrSignInDenied    = &Error{Code: "SIGNIN_DENIED", Message: "sign in not allowed for this address"}
	ErrTokenInvalid    = &Error{Code: "TOKEN_INVALID", Message: "verification token invalid"}
	ErrTokenExpired    = &Error{Code: "TOKEN_EXPIRED", Message: "verification token expired"}
	ErrSessionNotFound = &Error{Code: "SESSION_NOT_FOUND", Message: "session not found"}

	// Event errors
	ErrUnknownEvent = &Error{Code: "UNKNOWN_EVENT", Message: "no function registered for event"}
	ErrRunNotFound  = &Error{Code: "RUN_NOT_FOUND", Message: "event run not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
