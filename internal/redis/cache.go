package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hailo/internal/domain"
)

// ProfileCacheTTL bounds how stale a cached driver profile may be. The
// profile is display-only and fetched once per assignment, so a generous
// TTL is fine.
const ProfileCacheTTL = 5 * time.Minute

const profileCachePrefix = "cache:profile:"

// ProfileCache caches user profiles in Redis.
type ProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

type cachedProfile struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	AvatarURL   string  `json:"avatar_url"`
	PhoneNumber string  `json:"phone_number"`
	Rating      float64 `json:"rating"`
	TotalRides  int     `json:"total_rides"`
	IsDriver    bool    `json:"is_driver"`
	Make        string  `json:"vehicle_make"`
	Model       string  `json:"vehicle_model"`
	Color       string  `json:"vehicle_color"`
	Plate       string  `json:"vehicle_plate"`
}

// Get retrieves a profile from cache. A nil profile with nil error is a
// cache miss.
func (c *ProfileCache) Get(ctx context.Context, id string) (*domain.Profile, error) {
	data, err := c.client.Get(ctx, profileCachePrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cp cachedProfile
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}

	return &domain.Profile{
		ID:          cp.ID,
		FullName:    cp.FullName,
		AvatarURL:   cp.AvatarURL,
		PhoneNumber: cp.PhoneNumber,
		Rating:      cp.Rating,
		TotalRides:  cp.TotalRides,
		IsDriver:    cp.IsDriver,
		Vehicle: domain.VehicleInfo{
			Make:         cp.Make,
			Model:        cp.Model,
			Color:        cp.Color,
			LicensePlate: cp.Plate,
		},
	}, nil
}

// Set stores a profile in cache.
func (c *ProfileCache) Set(ctx context.Context, p *domain.Profile) error {
	data, err := json.Marshal(cachedProfile{
		ID:          p.ID,
		FullName:    p.FullName,
		AvatarURL:   p.AvatarURL,
		PhoneNumber: p.PhoneNumber,
		Rating:      p.Rating,
		TotalRides:  p.TotalRides,
		IsDriver:    p.IsDriver,
		Make:        p.Vehicle.Make,
		Model:       p.Vehicle.Model,
		Color:       p.Vehicle.Color,
		Plate:       p.Vehicle.LicensePlate,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileCachePrefix+p.ID, data, ProfileCacheTTL).Err()
}

// Invalidate removes a profile from cache.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, profileCachePrefix+id).Err()
}
