// Package errs provides the structured error type shared by every surface
// adapter. Every error the Processing Service returns carries one of a fixed
// set of kinds so both the MCP and HTTP adapters can map it without
// re-deriving meaning from a message string.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error kinds the system recognizes. Both surfaces
// preserve it verbatim in their error envelope.
type Kind string

const (
	InvalidParams       Kind = "invalid_params"
	DimensionMismatch   Kind = "dimension_mismatch"
	ProviderUnavailable Kind = "provider_unavailable"
	StoreUnavailable    Kind = "store_unavailable"
	NotFound            Kind = "not_found"
	Conflict            Kind = "conflict"
	Internal            Kind = "internal"
)

// Error is the structured error type used throughout the pipeline.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by kind, so errors.Is(err, errs.New(errs.NotFound, "")) works
// without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a bare error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithHint attaches a remediation hint and returns the error for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithCause attaches an underlying cause and returns the error for chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func InvalidParamsf(format string, args ...any) *Error {
	return New(InvalidParams, fmt.Sprintf(format, args...))
}

func DimensionMismatchf(format string, args ...any) *Error {
	return New(DimensionMismatch, fmt.Sprintf(format, args...))
}

func ProviderUnavailablef(hint, format string, args ...any) *Error {
	return New(ProviderUnavailable, fmt.Sprintf(format, args...)).WithHint(hint)
}

func StoreUnavailablef(format string, args ...any) *Error {
	return New(StoreUnavailable, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

func Internalf(format string, args ...any) *Error {
	return New(Internal, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err if it is (or wraps) an *Error, otherwise
// Internal. Surface adapters use this so an unexpected error from a
// collaborator still maps to a valid envelope instead of panicking.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
