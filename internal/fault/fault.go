// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fault defines the typed errors returned by the workflow layer.
// Handlers translate a fault's Kind into an HTTP status code.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrUniqueViolation = errors.New("unique violation")
)

// Kind classifies a fault.
type Kind int

const (
	Validation Kind = iota
	PermissionDenied
	InvalidState
	NotFound
	Persistence
	ConfirmationRequired
	Unauthenticated
	Throttled
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case PermissionDenied:
		return "permission_denied"
	case InvalidState:
		return "invalid_state"
	case NotFound:
		return "not_found"
	case Persistence:
		return "persistence"
	case ConfirmationRequired:
		return "confirmation_required"
	case Unauthenticated:
		return "unauthenticated"
	case Throttled:
		return "rate_limited"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind to a response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case PermissionDenied:
		return http.StatusForbidden
	case InvalidState:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case ConfirmationRequired:
		return http.StatusPreconditionRequired
	case Unauthenticated:
		return http.StatusUnauthorized
	case Throttled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a fault of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validationf creates a Validation fault.
func Validationf(format string, args ...any) error {
	return New(Validation, format, args...)
}

// Deniedf creates a PermissionDenied fault.
func Deniedf(format string, args ...any) error {
	return New(PermissionDenied, format, args...)
}

// InvalidStatef creates an InvalidState fault.
func InvalidStatef(format string, args ...any) error {
	return New(InvalidState, format, args...)
}

// NotFoundf creates a NotFound fault.
func NotFoundf(format string, args ...any) error {
	return New(NotFound, format, args...)
}

// Persist wraps a store error as a Persistence fault.
func Persist(err error, format string, args ...any) error {
	return Wrap(Persistence, err, format, args...)
}

// As returns the first fault in err's chain.
func As(err error) (*Error, bool) {
	var f *Error
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Is reports whether err carries a fault of the given kind.
func Is(err error, kind Kind) bool {
	f, ok := As(err)
	return ok && f.Kind == kind
}

// KindOf returns the kind of err, treating unclassified errors as
// Persistence.
func KindOf(err error) Kind {
	if f, ok := As(err); ok {
		return f.Kind
	}
	return Persistence
}

// IsClientError reports whether err was caused by the caller rather than
// by the service.
func IsClientError(err error) bool {
	f, ok := As(err)
	return ok && f.Kind != Persistence && f.Kind != Internal
}
