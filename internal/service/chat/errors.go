package chat

import (
	"errors"
	"fmt"
)

// ErrorCode classifies orchestrator failures so the webhook boundary can map
// each one to its own user-facing string and log line.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	CodeCompletionAPI    ErrorCode = "COMPLETION_API_ERROR"
)

// Error is a classified orchestrator failure.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("chat: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("chat: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the error code, or empty when err is not a chat error.
func CodeOf(err error) ErrorCode {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Code
	}
	return ""
}
