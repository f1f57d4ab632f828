package store

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("statistics not persisted")
	// ErrMalformed is returned by backends whose stored data cannot be decoded.
	ErrMalformed = errors.New("malformed statistics")
	// ErrInvalidResult is returned when a result fails validation.
	ErrInvalidResult = errors.New("invalid practice result")
)

// PersistenceError reports results kept in memory that the backend has not
// accepted yet. They are retried on the next Record, Flush or Close.
type PersistenceError struct {
	Pending int
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %d result(s): %v", e.Pending, e.Err)
}

// Unwrap exposes both ErrPersistence and the backend error.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
