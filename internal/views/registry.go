package views

import (
	"context"
	"sync"

	"hailo/internal/config"
	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/repository"
)

// Registry owns the live per-user sessions. A user gets at most one view
// per role; repeated lookups return the same session so every request
// sees the same local ride state.
type Registry struct {
	store       repository.RideRepository
	profileRepo repository.ProfileRepository
	profiles    lifecycle.ProfileSource
	relay       lifecycle.Relay
	pricing     config.PricingConfig

	mu      sync.Mutex
	riders  map[string]*RiderView
	drivers map[string]*DriverView
}

// NewRegistry creates a session registry over the shared backends.
func NewRegistry(store repository.RideRepository, profileRepo repository.ProfileRepository, profiles lifecycle.ProfileSource, rl lifecycle.Relay, pricing config.PricingConfig) *Registry {
	return &Registry{
		store:       store,
		profileRepo: profileRepo,
		profiles:    profiles,
		relay:       rl,
		pricing:     pricing,
		riders:      make(map[string]*RiderView),
		drivers:     make(map[string]*DriverView),
	}
}

// Rider returns the rider session for a user, starting one if needed.
func (r *Registry) Rider(ctx context.Context, userID string) (*RiderView, error) {
	r.mu.Lock()
	if v, ok := r.riders[userID]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	sync := lifecycle.NewSynchronizer(userID, domain.RoleRider, r.store, r.profiles, r.relay)
	view := NewRiderView(userID, sync, r.profileRepo, r.pricing)
	if err := view.Start(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.riders[userID]; ok {
		// Lost the creation race; keep the first session.
		view.Stop()
		return existing, nil
	}
	r.riders[userID] = view
	return view, nil
}

// Driver returns the driver session for a user, starting one if needed.
func (r *Registry) Driver(ctx context.Context, userID string) (*DriverView, error) {
	r.mu.Lock()
	if v, ok := r.drivers[userID]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	sync := lifecycle.NewSynchronizer(userID, domain.RoleDriver, r.store, r.profiles, r.relay)
	view := NewDriverView(userID, sync, r.store, r.relay)
	if err := view.Start(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.drivers[userID]; ok {
		view.Stop()
		return existing, nil
	}
	r.drivers[userID] = view
	return view, nil
}

// Close stops every live session.
func (r *Registry) Close() {
	r.mu.Lock()
	riders := r.riders
	drivers := r.drivers
	r.riders = make(map[string]*RiderView)
	r.drivers = make(map[string]*DriverView)
	r.mu.Unlock()

	for _, v := range riders {
		v.Stop()
	}
	for _, v := range drivers {
		v.Stop()
	}
}
