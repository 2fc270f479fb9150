package domain

import "errors"

// Error categories. Specific errors wrap one of these so callers can switch on errors.Is.
var (
	ErrInvalidRule  = errors.New("invalid recurrence rule")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnauthorized = errors.New("unauthorized")
)
