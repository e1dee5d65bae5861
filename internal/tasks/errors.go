package tasks

import "errors"

var (
	// ErrTaskNotFound is returned when a task cannot be found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrValidation is returned when an update is rejected before being sent.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidConfig is returned when store configuration is invalid.
	ErrInvalidConfig = errors.New("invalid store configuration")

	// ErrReadOnly is returned when attempting to modify a read-only store.
	ErrReadOnly = errors.New("store is read-only")

	// ErrNotSupported is returned when an operation is not supported by a store.
	ErrNotSupported = errors.New("operation not supported")
)
