// Package apperr defines the labeled, user-facing errors raised by resolvers
// and mutation handlers.
//
// Every error carries a Code that is surfaced to GraphQL clients through the
// "extensions.code" member of the response error. Store and hashing failures
// that are not part of the domain taxonomy are wrapped as CodeInternal.
package apperr

import (
	"errors"
	"fmt"
)

// Code labels an error for clients.
type Code string

const (
	// CodeNotFound reports that a referenced entity was absent at validation time.
	CodeNotFound Code = "NOT_FOUND"
	// CodeConflict reports a duplicate value for a unique attribute.
	CodeConflict Code = "CONFLICT"
	// CodeMalformedReference reports an identifier that cannot be parsed into
	// the store-native form. It aborts the whole request.
	CodeMalformedReference Code = "MALFORMED_REFERENCE"
	// CodeInternal wraps collaborator failures (store, hasher).
	CodeInternal Code = "INTERNAL"
)

// Error is a labeled error with a human-readable message.
type Error struct {
	Code    Code
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
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, &Error{Code: CodeNotFound})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Extensions returns the GraphQL error extensions for e.
func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": string(e.Code)}
}

// AbortsRequest reports whether the executor must stop the whole operation.
func (e *Error) AbortsRequest() bool { return e.Code == CodeMalformedReference }

// Sentinels for errors.Is checks.
var (
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrConflict           = &Error{Code: CodeConflict}
	ErrMalformedReference = &Error{Code: CodeMalformedReference}
	ErrInternal           = &Error{Code: CodeInternal}
)

// NotFound names the missing entity kind and the identifier that was looked up.
func NotFound(kind, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", kind, id)}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Malformed reports an identifier that is not a valid store reference.
func Malformed(raw string, err error) *Error {
	return &Error{
		Code:    CodeMalformedReference,
		Message: fmt.Sprintf("malformed reference %q", raw),
		Err:     err,
	}
}

// Internal wraps a collaborator failure for operation op. A nil err yields nil.
// Errors already labeled are returned unchanged.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeInternal, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsMalformed(err error) bool { return errors.Is(err, ErrMalformedReference) }
