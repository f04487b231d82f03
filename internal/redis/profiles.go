package redis

import (
	"context"
	"log"

	"hailo/internal/domain"
	"hailo/internal/repository"
)

// CachedProfileSource is a read-through cache over the profile repository.
// Cache failures fall through to the repository; the cache only saves
// round trips, it is never authoritative.
type CachedProfileSource struct {
	cache *ProfileCache
	repo  repository.ProfileRepository
}

// NewCachedProfileSource wraps a profile repository with the Redis cache.
func NewCachedProfileSource(cache *ProfileCache, repo repository.ProfileRepository) *CachedProfileSource {
	return &CachedProfileSource{cache: cache, repo: repo}
}

// GetByID returns the profile from cache when present, otherwise reads the
// repository and populates the cache.
func (s *CachedProfileSource) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Printf("profile cache get %s: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, profile); err != nil {
			log.Printf("profile cache set %s: %v", id, err)
		}
	}
	return profile, nil
}
