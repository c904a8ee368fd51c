package journal

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrResourceNotOwned is returned whether the resource belongs to someone
	// else or does not exist at all.
	ErrResourceNotOwned = errors.New("resource not owned")
	ErrInvalidStatus    = errors.New("invalid book status")
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// FieldError reports which input field failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

func invalidField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
