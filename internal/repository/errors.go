package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrRideUnavailable is returned when a conditional status update
	// finds the ride no longer in the expected status. Callers must treat
	// this as a normal outcome (someone else got it), not a connectivity
	// failure.
	ErrRideUnavailable = errors.New("ride no longer in expected status")
)
