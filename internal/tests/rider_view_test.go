package tests

import (
	"context"
	"errors"
	"testing"

	"hailo/internal/config"
	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/views"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{BaseFare: 2.0, PerKmRate: 1.5, MinutesPerKm: 3.0}
}

func newRiderView(t *testing.T, riderID string, rideRepo *MockRideRepository, profileRepo *MockProfileRepository, mockRelay *MockRelay) *views.RiderView {
	t.Helper()
	sync := lifecycle.NewSynchronizer(riderID, domain.RoleRider, rideRepo, profileRepo, mockRelay)
	view := views.NewRiderView(riderID, sync, profileRepo, testPricing())
	if err := view.Start(context.Background()); err != nil {
		t.Fatalf("expected rider view to start, got %v", err)
	}
	t.Cleanup(view.Stop)
	return view
}

func TestRiderView_RequestValidatesLocations(t *testing.T) {
	view := newRiderView(t, "rider-1", NewMockRideRepository(), NewMockProfileRepository(), NewMockRelay())
	ctx := context.Background()

	pickup := domain.GeoPoint{Lat: 12.97, Lng: 77.59, Address: "MG Road"}
	dropoff := domain.GeoPoint{Lat: 12.93, Lng: 77.62, Address: "Koramangala"}

	if _, err := view.Request(ctx, domain.GeoPoint{}, dropoff); !errors.Is(err, views.ErrMissingPickup) {
		t.Errorf("expected ErrMissingPickup, got %v", err)
	}
	if _, err := view.Request(ctx, pickup, domain.GeoPoint{}); !errors.Is(err, views.ErrMissingDropoff) {
		t.Errorf("expected ErrMissingDropoff, got %v", err)
	}
	if _, err := view.Request(ctx, domain.GeoPoint{Lat: 95, Lng: 77, Address: "nowhere"}, dropoff); !errors.Is(err, views.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestRiderView_RequestStampsQuote(t *testing.T) {
	rideRepo := NewMockRideRepository()
	view := newRiderView(t, "rider-1", rideRepo, NewMockProfileRepository(), NewMockRelay())

	pickup := domain.GeoPoint{Lat: 40.0000, Lng: -74.0000, Address: "A"}
	dropoff := domain.GeoPoint{Lat: 40.0100, Lng: -74.0000, Address: "B"}

	ride, err := view.Request(context.Background(), pickup, dropoff)
	if err != nil {
		t.Fatalf("expected request to succeed, got %v", err)
	}

	if ride.DistanceKm != 1.1 {
		t.Errorf("expected distance 1.1, got %v", ride.DistanceKm)
	}
	if ride.EstimatedFare != 4 {
		t.Errorf("expected fare 4, got %v", ride.EstimatedFare)
	}
	if ride.EstimatedDuration != 3 {
		t.Errorf("expected duration 3, got %v", ride.EstimatedDuration)
	}
	if rideRepo.GetRide(ride.ID) == nil {
		t.Error("expected ride persisted")
	}
}

func TestRiderView_CurrentReflectsLifecycle(t *testing.T) {
	rideRepo := NewMockRideRepository()
	view := newRiderView(t, "rider-1", rideRepo, NewMockProfileRepository(), NewMockRelay())
	ctx := context.Background()

	pickup := domain.GeoPoint{Lat: 12.97, Lng: 77.59, Address: "MG Road"}
	dropoff := domain.GeoPoint{Lat: 12.93, Lng: 77.62, Address: "Koramangala"}

	ride, err := view.Request(ctx, pickup, dropoff)
	if err != nil {
		t.Fatalf("expected request to succeed, got %v", err)
	}

	current, ok := view.Current()
	if !ok || current.Ride.ID != ride.ID {
		t.Fatal("expected requested ride tracked")
	}

	if err := view.Cancel(ctx); err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}
	if _, ok := view.Current(); ok {
		t.Error("expected no tracked ride after cancel")
	}
}

func TestRiderView_MapProjection(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusEnRoute)
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	view := newRiderView(t, "rider-1", rideRepo, NewMockProfileRepository(), NewMockRelay())

	projection, ok := view.Map()
	if !ok {
		t.Fatal("expected projection for active ride")
	}

	kinds := make(map[lifecycle.MarkerKind]bool)
	for _, m := range projection.Markers {
		kinds[m.Kind] = true
	}
	if !kinds[lifecycle.MarkerPickup] || !kinds[lifecycle.MarkerDropoff] || !kinds[lifecycle.MarkerDriver] {
		t.Errorf("expected pickup, dropoff, and driver markers, got %v", projection.Markers)
	}

	if len(projection.Routes) != 1 || projection.Routes[0].Kind != lifecycle.RouteToPickup {
		t.Fatalf("expected single to_pickup route, got %v", projection.Routes)
	}
	if len(projection.Routes[0].Points) != 3 {
		t.Errorf("expected 3-point polyline, got %d points", len(projection.Routes[0].Points))
	}
}

func TestRiderView_RateDriverValidatesStars(t *testing.T) {
	profileRepo := NewMockProfileRepository()
	view := newRiderView(t, "rider-1", NewMockRideRepository(), profileRepo, NewMockRelay())
	ctx := context.Background()

	for _, stars := range []int{0, 6, -1} {
		if err := view.RateDriver(ctx, "ride-1", "driver-1", stars); !errors.Is(err, views.ErrInvalidRating) {
			t.Errorf("expected ErrInvalidRating for %d stars, got %v", stars, err)
		}
	}

	if err := view.RateDriver(ctx, "ride-1", "driver-1", 5); err != nil {
		t.Fatalf("expected rating to succeed, got %v", err)
	}

	ratings := profileRepo.Ratings()
	if len(ratings) != 1 {
		t.Fatalf("expected 1 rating saved, got %d", len(ratings))
	}
	if ratings[0].Stars != 5 || ratings[0].DriverID != "driver-1" || ratings[0].RiderID != "rider-1" {
		t.Errorf("unexpected rating record %+v", ratings[0])
	}
}

func TestRiderView_AssignmentFetchesDriverProfile(t *testing.T) {
	rideRepo := NewMockRideRepository()
	profileRepo := NewMockProfileRepository()
	profileRepo.AddProfile(&domain.Profile{
		ID:       "driver-1",
		FullName: "Asha K",
		IsDriver: true,
		Vehicle:  domain.VehicleInfo{Make: "Maruti", Model: "Swift", Color: "White", LicensePlate: "KA-01-1234"},
	})

	ride := newTestRide("ride-1", "rider-1", domain.RideStatusDriverAssigned)
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	view := newRiderView(t, "rider-1", rideRepo, profileRepo, NewMockRelay())

	current, ok := view.Current()
	if !ok {
		t.Fatal("expected active ride adopted on start")
	}
	if current.Driver == nil {
		t.Fatal("expected driver profile fetched on assignment")
	}
	if current.Driver.FullName != "Asha K" {
		t.Errorf("unexpected driver profile %+v", current.Driver)
	}
}
