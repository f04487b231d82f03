package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"hailo/internal/domain"
	"hailo/internal/repository"
)

// Querier abstracts *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

const rideColumns = `
	id, rider_id, driver_id, pickup_lat, pickup_lng, pickup_address,
	dropoff_lat, dropoff_lng, dropoff_address, estimated_fare,
	estimated_duration, distance_km, actual_fare, status, created_at, updated_at
`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO ride_requests (id, rider_id, driver_id, pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address, estimated_fare, estimated_duration,
			distance_km, actual_fare, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	var driverID sql.NullString
	if ride.DriverID != "" {
		driverID = sql.NullString{String: ride.DriverID, Valid: true}
	}

	var actualFare sql.NullFloat64
	if ride.ActualFare > 0 {
		actualFare = sql.NullFloat64{Float64: ride.ActualFare, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		driverID,
		ride.Pickup.Lat,
		ride.Pickup.Lng,
		ride.Pickup.Address,
		ride.Dropoff.Lat,
		ride.Dropoff.Lng,
		ride.Dropoff.Address,
		ride.EstimatedFare,
		ride.EstimatedDuration,
		ride.DistanceKm,
		actualFare,
		ride.Status,
		ride.CreatedAt,
		ride.UpdatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM ride_requests WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetActiveForRider retrieves the most recently created non-terminal ride
// for a rider.
func (r *RideRepository) GetActiveForRider(ctx context.Context, riderID string) (*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE rider_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanRide(r.q.QueryRowContext(ctx, query, riderID, pq.Array(statusStrings(domain.ActiveStatuses))))
}

// GetActiveForDriver retrieves the ride currently assigned to a driver.
func (r *RideRepository) GetActiveForDriver(ctx context.Context, driverID string) (*domain.Ride, error) {
	assigned := []domain.RideStatus{
		domain.RideStatusDriverAssigned,
		domain.RideStatusEnRoute,
		domain.RideStatusArrived,
		domain.RideStatusInProgress,
	}
	query := `
		SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanRide(r.q.QueryRowContext(ctx, query, driverID, pq.Array(statusStrings(assigned))))
}

// ListSearching retrieves all rides still looking for a driver, newest first.
func (r *RideRepository) ListSearching(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE status = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusSearching)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRideRows(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// UpdateStatus moves a ride to a new status. With opts.ExpectedStatus set,
// the write is a compare-and-swap: zero rows affected means the record was
// changed elsewhere (ErrRideUnavailable) or does not exist (ErrNotFound).
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, status domain.RideStatus, opts repository.StatusUpdate) error {
	var driverID sql.NullString
	if opts.DriverID != "" {
		driverID = sql.NullString{String: opts.DriverID, Valid: true}
	}

	var actualFare sql.NullFloat64
	if opts.ActualFare != nil {
		actualFare = sql.NullFloat64{Float64: *opts.ActualFare, Valid: true}
	}

	var result sql.Result
	var err error

	if opts.ExpectedStatus != "" {
		query := `
			UPDATE ride_requests
			SET status = $1,
				driver_id = COALESCE($2, driver_id),
				actual_fare = COALESCE($3, actual_fare),
				updated_at = $4
			WHERE id = $5 AND status = $6
		`
		result, err = r.q.ExecContext(ctx, query, status, driverID, actualFare, time.Now(), id, opts.ExpectedStatus)
	} else {
		query := `
			UPDATE ride_requests
			SET status = $1,
				driver_id = COALESCE($2, driver_id),
				actual_fare = COALESCE($3, actual_fare),
				updated_at = $4
			WHERE id = $5
		`
		result, err = r.q.ExecContext(ctx, query, status, driverID, actualFare, time.Now(), id)
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Distinguish "claimed by someone else" from "no such ride".
	if opts.ExpectedStatus != "" {
		var exists bool
		checkErr := r.q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM ride_requests WHERE id = $1)`, id).Scan(&exists)
		if checkErr != nil {
			return checkErr
		}
		if exists {
			return repository.ErrRideUnavailable
		}
	}
	return repository.ErrNotFound
}

// EarningsForDriver sums the fares of a driver's completed rides created at
// or after since. Uses the actual fare when present, falling back to the
// estimate as the original ledger did.
func (r *RideRepository) EarningsForDriver(ctx context.Context, driverID string, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(COALESCE(actual_fare, estimated_fare)), 0)
		FROM ride_requests
		WHERE driver_id = $1 AND status = $2 AND created_at >= $3
	`

	var total float64
	err := r.q.QueryRowContext(ctx, query, driverID, domain.RideStatusCompleted, since).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row *sql.Row) (*domain.Ride, error) {
	ride, err := scanRideFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func scanRideRows(rows *sql.Rows) (*domain.Ride, error) {
	return scanRideFrom(rows)
}

func scanRideFrom(s rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID sql.NullString
	var actualFare sql.NullFloat64

	err := s.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.Pickup.Lat,
		&ride.Pickup.Lng,
		&ride.Pickup.Address,
		&ride.Dropoff.Lat,
		&ride.Dropoff.Lng,
		&ride.Dropoff.Address,
		&ride.EstimatedFare,
		&ride.EstimatedDuration,
		&ride.DistanceKm,
		&actualFare,
		&ride.Status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		ride.DriverID = driverID.String
	}
	if actualFare.Valid {
		ride.ActualFare = actualFare.Float64
	}
	return &ride, nil
}

func statusStrings(statuses []domain.RideStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
