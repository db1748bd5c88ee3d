// Package errors provides the coded error type shared by the refresh engine,
// the git backend and the CLI.
//
// Callers match on codes with Is and GetCode rather than on message text.
// The type implements Unwrap, so the standard library errors.Is and errors.As
// keep working against the underlying cause.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error condition.
type ErrorCode string

const (
	// Refresh engine errors
	ErrCodeFetchFailed        ErrorCode = "FETCH_FAILED"
	ErrCodeFetchTimeout       ErrorCode = "FETCH_TIMEOUT"
	ErrCodeObserverFailed     ErrorCode = "OBSERVER_FAILED"
	ErrCodeRefreshConflict    ErrorCode = "REFRESH_CONFLICT"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeCoordinatorStopped ErrorCode = "COORDINATOR_STOPPED"

	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Git errors
	ErrCodeNotARepository  ErrorCode = "NOT_A_REPOSITORY"
	ErrCodeGitNotInstalled ErrorCode = "GIT_NOT_INSTALLED"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"
)

// Error represents a structured error with context.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON.
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any error in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the first error code found in err's chain.
func GetCode(err error) ErrorCode {
	var coded *Error
	if !stderrors.As(err, &coded) {
		return ""
	}
	return coded.Code
}
