package repository

import (
	"context"

	"hailo/internal/domain"
)

// ProfileRepository defines the persistence operations for user profiles.
type ProfileRepository interface {
	// GetByID retrieves a profile by user ID.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)

	// SaveRating stores a rider's post-ride rating for a driver.
	SaveRating(ctx context.Context, rating *domain.Rating) error
}
