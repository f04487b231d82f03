package views

import "errors"

var (
	// ErrMissingPickup is returned when a ride request has no pickup point.
	ErrMissingPickup = errors.New("missing pickup location")

	// ErrMissingDropoff is returned when a ride request has no dropoff point.
	ErrMissingDropoff = errors.New("missing dropoff location")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location coordinates")

	// ErrOffline is returned when a driver action requires being online.
	ErrOffline = errors.New("driver is offline")

	// ErrRideNotListed is returned when accepting a ride that is not in
	// the available list.
	ErrRideNotListed = errors.New("ride not in available list")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)
