package model

import "errors"

// ErrValidation is the root of all input validation failures. Stage specific
// sentinels wrap it so callers can test either level with errors.Is.
var ErrValidation = errors.New("validation error")

// ErrInvalidBounds is returned for boxes where min >= max on either axis
var ErrInvalidBounds = ValidationError("invalid bounding box")

// ValidationError creates a sentinel that wraps ErrValidation
func ValidationError(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }
