package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
)

// ValidationError describes a rejected submission field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError reports a failure of the persistent medium.
// Op names the store operation ("append", "load").
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a StorageError for op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the cause and ErrStorage to errors.Is.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }
