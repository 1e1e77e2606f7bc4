// Package apperr defines the error kinds every operation reports with.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure for response mapping.
type Kind int

const (
	// KindInternal is a collaborator failure or unexpected fault. Detail is
	// logged, never surfaced to the caller.
	KindInternal Kind = iota
	// KindValidation means caller-supplied data fails a contract.
	KindValidation
	// KindAuth means the bearer credential is missing or rejected.
	KindAuth
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
)

// Error carries a kind, a caller-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validationf builds a validation error with a caller-visible message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error with a caller-visible message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Auth builds an auth error. The message is always the generic one; verifier
// detail stays in the cause for logging.
func Auth(cause error) *Error {
	return &Error{Kind: KindAuth, Message: "Unauthorized access", cause: cause}
}

// Internal wraps a collaborator failure. The caller-safe message is generic.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal error, please try again later", cause: cause}
}

// KindOf extracts the kind from err, defaulting to KindInternal for errors
// that did not originate in this taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message safe to place in a response envelope.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal error, please try again later"
}
