// Package views holds the role-scoped controllers: what a rider and a
// driver can see and do on top of their lifecycle synchronizer. Views read
// the synchronizer's state and issue intent actions; they never mutate the
// local ride view directly.
package views

import (
	"context"

	"hailo/internal/config"
	"hailo/internal/domain"
	"hailo/internal/estimate"
	"hailo/internal/lifecycle"
	"hailo/internal/repository"
)

// RiderView drives the rider side of a session: requesting a ride,
// watching its progress, cancelling while still allowed, and rating the
// driver afterwards.
type RiderView struct {
	userID   string
	sync     *lifecycle.Synchronizer
	profiles repository.ProfileRepository
	pricing  config.PricingConfig
}

// NewRiderView creates a rider view over a rider-role synchronizer.
func NewRiderView(userID string, sync *lifecycle.Synchronizer, profiles repository.ProfileRepository, pricing config.PricingConfig) *RiderView {
	return &RiderView{userID: userID, sync: sync, profiles: profiles, pricing: pricing}
}

// Start begins the session: room membership, subscriptions, and the
// initial active-ride check.
func (v *RiderView) Start(ctx context.Context) error {
	return v.sync.Start(ctx)
}

// Stop tears the session down, releasing all rooms and subscriptions.
func (v *RiderView) Stop() {
	v.sync.Stop()
}

// Quote computes the displayed estimate for a prospective ride without
// creating anything.
func (v *RiderView) Quote(pickup, dropoff domain.GeoPoint) (estimate.Quote, error) {
	if err := validatePoints(pickup, dropoff); err != nil {
		return estimate.Quote{}, err
	}
	return estimate.NewQuote(pickup, dropoff, v.pricing), nil
}

// Request validates the locations, quotes the estimate, and creates the
// ride. Validation failures reject before any network call.
func (v *RiderView) Request(ctx context.Context, pickup, dropoff domain.GeoPoint) (*domain.Ride, error) {
	if err := validatePoints(pickup, dropoff); err != nil {
		return nil, err
	}

	q := estimate.NewQuote(pickup, dropoff, v.pricing)
	ride := &domain.Ride{
		Pickup:            pickup,
		Dropoff:           dropoff,
		EstimatedFare:     q.Fare,
		EstimatedDuration: q.DurationMin,
		DistanceKm:        q.DistanceKm,
	}

	return v.sync.RequestRide(ctx, ride)
}

// Cancel cancels the active ride while its status still allows it.
func (v *RiderView) Cancel(ctx context.Context) error {
	return v.sync.CancelRide(ctx)
}

// Current returns the active ride view, if any.
func (v *RiderView) Current() (lifecycle.View, bool) {
	return v.sync.Current()
}

// Map returns the derived map annotations for the active ride.
func (v *RiderView) Map() (lifecycle.Projection, bool) {
	view, ok := v.sync.Current()
	if !ok {
		return lifecycle.Projection{}, false
	}
	return lifecycle.Project(view), true
}

// RateDriver stores a post-completion rating. The lifecycle view is
// already gone by then, so the ride and driver ids come from the caller.
func (v *RiderView) RateDriver(ctx context.Context, rideID, driverID string, stars int) error {
	if stars < 1 || stars > 5 {
		return ErrInvalidRating
	}
	return v.profiles.SaveRating(ctx, &domain.Rating{
		RideID:   rideID,
		DriverID: driverID,
		RiderID:  v.userID,
		Stars:    stars,
	})
}

func validatePoints(pickup, dropoff domain.GeoPoint) error {
	if pickup == (domain.GeoPoint{}) {
		return ErrMissingPickup
	}
	if dropoff == (domain.GeoPoint{}) {
		return ErrMissingDropoff
	}
	for _, p := range []domain.GeoPoint{pickup, dropoff} {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return ErrInvalidLocation
		}
	}
	return nil
}
