package engine

import (
	"errors"
	"fmt"
)

// Kind classifies every failure that can leave the engine
type Kind string

const (
	KindValidation        Kind = "validation"
	KindTargetUnreachable Kind = "target_unreachable"
	KindEncodingFailure   Kind = "encoding_failure"
	KindTimeout           Kind = "timeout"
	KindStorage           Kind = "storage"
	KindNotFound          Kind = "not_found"
)

// Error is the normalized engine error. Message is safe to show to callers;
// Cause carries internal detail for logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ValidationError reports bad caller input. Never retried.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// TargetUnreachableError reports a search that exhausted its bounded attempts
func TargetUnreachableError(format string, args ...any) *Error {
	return &Error{Kind: KindTargetUnreachable, Message: fmt.Sprintf(format, args...)}
}

// EncodingFailureError wraps an encoder or tool failure
func EncodingFailureError(message string, cause error) *Error {
	return &Error{Kind: KindEncodingFailure, Message: message, Cause: cause}
}

// TimeoutError reports that the job deadline elapsed
func TimeoutError(message string, cause error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Cause: cause}
}

// StorageError wraps an artifact persistence or read failure
func StorageError(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: message, Cause: cause}
}

// NotFoundError reports an unknown or expired artifact handle
func NotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// SafeMessage returns the caller-facing text for err
func SafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
