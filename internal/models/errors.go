package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a TaskError.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindFileOperation
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindFileOperation:
		return "file operation error"
	case KindNotFound:
		return "not found"
	default:
		return "task error"
	}
}

// TaskError is the single error category for the task domain. Callers match a
// whole kind with errors.Is against ErrValidation, ErrFileOperation or
// ErrNotFound, or pull the details out with errors.As.
type TaskError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

var (
	ErrValidation    = &TaskError{Kind: KindValidation}
	ErrFileOperation = &TaskError{Kind: KindFileOperation}
	ErrNotFound      = &TaskError{Kind: KindNotFound}
)

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return e.Kind.String()
	}
}

func (e *TaskError) Unwrap() error { return e.Cause }

// Is matches the kind sentinels: a target with no message and no cause
// matches any TaskError of the same kind.
func (e *TaskError) Is(target error) bool {
	t, ok := target.(*TaskError)
	if !ok || t == nil || e == nil {
		return false
	}
	if t.Message != "" || t.Cause != nil {
		return e == t
	}
	return e.Kind == t.Kind
}

func NewValidationError(message string, cause error) error {
	return &TaskError{Kind: KindValidation, Message: message, Cause: cause}
}

func NewFileOperationError(message string, cause error) error {
	return &TaskError{Kind: KindFileOperation, Message: message, Cause: cause}
}

func NewNotFoundError(message string) error {
	return &TaskError{Kind: KindNotFound, Message: message}
}

// KindOf returns the kind of the first TaskError in err's chain, or 0 when
// there is none.
func KindOf(err error) ErrorKind {
	var te *TaskError
	if errors.As(err, &te) && te != nil {
		return te.Kind
	}
	return 0
}
