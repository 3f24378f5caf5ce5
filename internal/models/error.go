package models

import "errors"

// Sentinel error kinds. Every failure surfaced by a service wraps one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("resource not found")
	ErrInternalServer     = errors.New("internal server error")
)

// Error attaches a user-facing message to an error kind
type Error struct {
	Kind    error
	Message string
}

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Validation is shorthand for a ValidationError with a message
func Validation(message string) error {
	return NewError(ErrValidation, message)
}

// Forbidden is shorthand for a Forbidden error with a message
func Forbidden(message string) error {
	return NewError(ErrForbidden, message)
}

// MessageOf returns the user-facing message carried by err, or fallback
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
