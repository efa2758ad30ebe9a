package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyProcessed       = fmt.Errorf("%w: request already processed", ErrInvalidStateTransition)
	ErrAccountInactive        = errors.New("account inactive")
	ErrAlreadyExists          = errors.New("already exists")
)

// Validationf builds an ErrValidation with a human readable reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
