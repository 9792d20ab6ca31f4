package validation

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidType      = errors.New("invalid type")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrInvalidBody      = errors.New("invalid JSON body")
)

// Error is a validation failure. Kind is one of the Err* sentinels and is
// what errors.Is matches against; Status is the HTTP status to answer with.
type Error struct {
	Kind    error
	Field   string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func missingField(field string) *Error {
	return &Error{
		Kind:    ErrMissingField,
		Field:   field,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
	}
}

func invalidType(field string, want FieldType) *Error {
	return &Error{
		Kind:    ErrInvalidType,
		Field:   field,
		Message: fmt.Sprintf("invalid type for field %s: expected %s", field, want),
		Status:  http.StatusBadRequest,
	}
}

func methodNotAllowed(method string) *Error {
	return &Error{
		Kind:    ErrMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed", method),
		Status:  http.StatusMethodNotAllowed,
	}
}

func invalidBody(cause error) *Error {
	return &Error{
		Kind:    ErrInvalidBody,
		Message: fmt.Sprintf("invalid JSON body: %v", cause),
		Status:  http.StatusBadRequest,
	}
}

// StatusOf returns the HTTP status suggested by a validation error, or 400
// when err carries none.
func StatusOf(err error) int {
	var ve *Error
	if errors.As(err, &ve) && ve.Status != 0 {
		return ve.Status
	}
	return http.StatusBadRequest
}
