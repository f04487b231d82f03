package tests

import (
	"context"
	"errors"
	"testing"

	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/relay"
	"hailo/internal/repository"
	"hailo/internal/views"
)

func newDriverView(t *testing.T, driverID string, rideRepo *MockRideRepository, mockRelay *MockRelay) *views.DriverView {
	t.Helper()
	sync := lifecycle.NewSynchronizer(driverID, domain.RoleDriver, rideRepo, NewMockProfileRepository(), mockRelay)
	view := views.NewDriverView(driverID, sync, rideRepo, mockRelay)
	if err := view.Start(context.Background()); err != nil {
		t.Fatalf("expected driver view to start, got %v", err)
	}
	t.Cleanup(view.Stop)
	return view
}

func TestDriverView_GoOnlineLoadsSearchingRides(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))
	rideRepo.AddRide(newTestRide("ride-2", "rider-2", domain.RideStatusSearching))
	rideRepo.AddRide(newTestRide("ride-3", "rider-3", domain.RideStatusEnRoute))

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}

	if got := len(view.Available()); got != 2 {
		t.Errorf("expected 2 searching rides listed, got %d", got)
	}
	if mockRelay.CountPublished(relay.EventDriverOnline) != 1 {
		t.Error("expected driver_online published")
	}
}

func TestDriverView_OfflineClearsListAndBlocksAccept(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}
	view.GoOffline()

	if got := len(view.Available()); got != 0 {
		t.Errorf("expected list cleared when offline, got %d entries", got)
	}
	if mockRelay.CountPublished(relay.EventDriverOffline) != 1 {
		t.Error("expected driver_offline published")
	}
	if err := view.Accept(context.Background(), "ride-1"); !errors.Is(err, views.ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
}

func TestDriverView_NewRequestEventAddsToList(t *testing.T) {
	rideRepo := NewMockRideRepository()
	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}

	// The announcement is thin; the record comes from the store.
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))
	mockRelay.Deliver(relay.EventNewRideRequest, relay.RideEvent{RideID: "ride-1", RiderID: "rider-1"})

	available := view.Available()
	if len(available) != 1 || available[0].ID != "ride-1" {
		t.Fatalf("expected announced ride listed, got %v", available)
	}

	// A duplicate announcement must not double the entry.
	mockRelay.Deliver(relay.EventNewRideRequest, relay.RideEvent{RideID: "ride-1", RiderID: "rider-1"})
	if got := len(view.Available()); got != 1 {
		t.Errorf("expected deduplicated list, got %d entries", got)
	}
}

func TestDriverView_RideLeavingSearchingIsRemoved(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}

	mockRelay.Deliver(relay.EventRideUpdate, relay.RideEvent{
		RideID: "ride-1",
		Status: domain.RideStatusDriverAssigned,
	})

	if got := len(view.Available()); got != 0 {
		t.Errorf("expected assigned ride removed from list, got %d entries", got)
	}
}

func TestDriverView_LostAcceptRemovesFromList(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}

	// Another driver claims the ride between listing and accepting.
	taken := rideRepo.GetRide("ride-1")
	taken.Status = domain.RideStatusDriverAssigned
	taken.DriverID = "driver-x"
	rideRepo.AddRide(taken)

	err := view.Accept(context.Background(), "ride-1")
	if !errors.Is(err, repository.ErrRideUnavailable) {
		t.Fatalf("expected ErrRideUnavailable, got %v", err)
	}
	if got := len(view.Available()); got != 0 {
		t.Errorf("expected unavailable ride removed from list, got %d entries", got)
	}
}

func TestDriverView_AcceptUnlistedRide(t *testing.T) {
	rideRepo := NewMockRideRepository()
	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}

	if err := view.Accept(context.Background(), "ride-unknown"); !errors.Is(err, views.ErrRideNotListed) {
		t.Errorf("expected ErrRideNotListed, got %v", err)
	}
}

func TestDriverView_DeclineIsLocalOnly(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	if err := view.GoOnline(context.Background()); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}

	view.Decline("ride-1")

	if got := len(view.Available()); got != 0 {
		t.Errorf("expected declined ride removed locally, got %d entries", got)
	}
	if got := rideRepo.GetRide("ride-1").Status; got != domain.RideStatusSearching {
		t.Errorf("expected stored ride untouched by decline, got %s", got)
	}
}

func TestDriverView_AcceptThenAdvanceThenComplete(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(newTestRide("ride-1", "rider-1", domain.RideStatusSearching))

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)
	ctx := context.Background()

	if err := view.GoOnline(ctx); err != nil {
		t.Fatalf("expected go online to succeed, got %v", err)
	}
	if err := view.Accept(ctx, "ride-1"); err != nil {
		t.Fatalf("expected accept to succeed, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := view.Advance(ctx); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}
	if err := view.Complete(ctx); err != nil {
		t.Fatalf("expected completion to succeed, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", stored.Status)
	}
	if stored.DriverID != "driver-1" {
		t.Errorf("expected driver recorded, got %q", stored.DriverID)
	}
}

func TestDriverView_EarningsSummary(t *testing.T) {
	rideRepo := NewMockRideRepository()

	done := newTestRide("ride-1", "rider-1", domain.RideStatusCompleted)
	done.DriverID = "driver-1"
	done.ActualFare = 12
	rideRepo.AddRide(done)

	other := newTestRide("ride-2", "rider-2", domain.RideStatusCompleted)
	other.DriverID = "driver-2"
	other.ActualFare = 50
	rideRepo.AddRide(other)

	open := newTestRide("ride-3", "rider-3", domain.RideStatusInProgress)
	open.DriverID = "driver-1"
	rideRepo.AddRide(open)

	mockRelay := NewMockRelay()
	view := newDriverView(t, "driver-1", rideRepo, mockRelay)

	earnings, err := view.EarningsSummary(context.Background())
	if err != nil {
		t.Fatalf("expected earnings to succeed, got %v", err)
	}
	if earnings.Total != 12 {
		t.Errorf("expected total 12, got %v", earnings.Total)
	}
	if earnings.Today != 12 {
		t.Errorf("expected today 12 for a just-created ride, got %v", earnings.Today)
	}
}
