package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
)

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors is the set of problems found in one request body.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	switch len(fe) {
	case 0:
		return ErrInvalidInput.Error()
	case 1:
		return fmt.Sprintf("%s: %s", ErrInvalidInput, fe[0])
	default:
		return fmt.Sprintf("%s: %s (and %d more)", ErrInvalidInput, fe[0], len(fe)-1)
	}
}

// Is reports FieldErrors as ErrInvalidInput.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

func wrap(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
