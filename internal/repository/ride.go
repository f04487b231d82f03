package repository

import (
	"context"
	"time"

	"hailo/internal/domain"
)

// StatusUpdate carries the optional fields of a status write.
type StatusUpdate struct {
	// ExpectedStatus, when non-empty, makes the write conditional: it only
	// succeeds if the record still holds this status. A failed condition
	// surfaces as ErrRideUnavailable.
	ExpectedStatus domain.RideStatus

	// DriverID, when non-empty, is written alongside the status
	// (driver assignment).
	DriverID string

	// ActualFare, when non-nil, is written alongside the status
	// (completion).
	ActualFare *float64
}

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetActiveForRider retrieves the most recently created non-terminal
	// ride for a rider, or ErrNotFound.
	GetActiveForRider(ctx context.Context, riderID string) (*domain.Ride, error)

	// GetActiveForDriver retrieves the ride currently assigned to a
	// driver (driver_assigned through in_progress), or ErrNotFound.
	GetActiveForDriver(ctx context.Context, driverID string) (*domain.Ride, error)

	// ListSearching retrieves all rides still looking for a driver,
	// newest first.
	ListSearching(ctx context.Context) ([]*domain.Ride, error)

	// UpdateStatus moves a ride to a new status, optionally conditioned
	// on its current status and carrying assignment/completion fields.
	UpdateStatus(ctx context.Context, id string, status domain.RideStatus, opts StatusUpdate) error

	// EarningsForDriver sums the fares of a driver's completed rides
	// created at or after since. A zero since means all time.
	EarningsForDriver(ctx context.Context, driverID string, since time.Time) (float64, error)
}
