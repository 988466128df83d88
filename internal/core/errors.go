package core

import (
	"errors"
	"fmt"
)

// Error kinds returned by the core. Match them with errors.Is.
var (
	// ErrValidation reports malformed or missing input.
	ErrValidation = errors.New("validation error")
	// ErrDuplicate reports a well registration whose From already exists.
	ErrDuplicate = errors.New("duplicate well")
	// ErrNotFound reports an operation on a nonexistent id.
	ErrNotFound = errors.New("not found")
	// ErrPersistence reports a storage failure.
	ErrPersistence = errors.New("persistence error")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// persistenceErr keeps the driver error out of the unwrap chain.
func persistenceErr(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, cause)
}
