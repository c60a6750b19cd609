package database

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when a versioned update lost the race.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrInvalidWindow is returned when start_date is after end_date.
	ErrInvalidWindow = errors.New("start date is after end date")

	// ErrDuplicateEmail is returned when an account email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)
