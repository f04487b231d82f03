package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hailo/internal/domain"
	"hailo/internal/repository"
)

// ProfileRepository is a PostgreSQL implementation of repository.ProfileRepository.
type ProfileRepository struct {
	q Querier
}

// NewProfileRepository creates a new PostgreSQL profile repository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{q: db}
}

// GetByID retrieves a profile by user ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, full_name, avatar_url, phone_number, rating, total_rides,
			is_driver, vehicle_make, vehicle_model, vehicle_color, vehicle_plate, created_at
		FROM profiles WHERE id = $1
	`

	var p domain.Profile
	var avatarURL, phone sql.NullString
	var vMake, vModel, vColor, vPlate sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.FullName,
		&avatarURL,
		&phone,
		&p.Rating,
		&p.TotalRides,
		&p.IsDriver,
		&vMake,
		&vModel,
		&vColor,
		&vPlate,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if avatarURL.Valid {
		p.AvatarURL = avatarURL.String
	}
	if phone.Valid {
		p.PhoneNumber = phone.String
	}
	p.Vehicle = domain.VehicleInfo{
		Make:         vMake.String,
		Model:        vModel.String,
		Color:        vColor.String,
		LicensePlate: vPlate.String,
	}

	return &p, nil
}

// SaveRating stores a rider's post-ride rating for a driver.
func (r *ProfileRepository) SaveRating(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO driver_ratings (ride_id, driver_id, rider_id, rating)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query, rating.RideID, rating.DriverID, rating.RiderID, rating.Stars)
	return err
}
