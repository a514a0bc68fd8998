package service

import (
	"context"
	"fmt"

	"github.com/Himanshujchavan/GROQPILOT/pkg/storage"
	"github.com/pkg/errors"
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind string

const (
	UnsupportedTarget    ErrorKind = "unsupported_target"
	UnsupportedAction    ErrorKind = "unsupported_action"
	MissingParameter     ErrorKind = "missing_parameter"
	InvalidParameter     ErrorKind = "invalid_parameter"
	ExecutionFailed      ErrorKind = "execution_failed"
	NotFound             ErrorKind = "not_found"
	EmptyWorkflow        ErrorKind = "empty_workflow"
	ConfirmationRequired ErrorKind = "confirmation_required"
)

// Error is a failure with a kind attached. Message is what callers see.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind ErrorKind, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err. Errors without a kind are execution failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, storage.ErrNotFound) {
		return NotFound
	}
	return ExecutionFailed
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
