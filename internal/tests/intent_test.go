package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/relay"
	"hailo/internal/repository"
)

func newDriverSync(t *testing.T, driverID string, rideRepo *MockRideRepository, mockRelay *MockRelay) *lifecycle.Synchronizer {
	t.Helper()
	return lifecycle.NewSynchronizer(driverID, domain.RoleDriver, rideRepo, NewMockProfileRepository(), mockRelay)
}

func TestRequestRide_CreatesAndPublishes(t *testing.T) {
	sync, rideRepo, mockRelay := newRiderSync(t, "rider-1")

	ride := newTestRide("", "", "")
	created, err := sync.RequestRide(context.Background(), ride)
	if err != nil {
		t.Fatalf("expected request to succeed, got %v", err)
	}

	if created.ID == "" {
		t.Error("expected generated ride id")
	}
	if created.RiderID != "rider-1" {
		t.Errorf("expected rider id stamped, got %q", created.RiderID)
	}
	if created.Status != domain.RideStatusSearching {
		t.Errorf("expected searching, got %s", created.Status)
	}
	if rideRepo.GetRide(created.ID) == nil {
		t.Error("expected ride persisted")
	}
	if mockRelay.CountPublished(relay.EventNewRideRequest) != 1 {
		t.Error("expected new_ride_request published")
	}

	view, ok := sync.Current()
	if !ok || view.Ride.ID != created.ID {
		t.Error("expected new ride tracked")
	}
}

func TestRequestRide_RejectsSecondActiveRide(t *testing.T) {
	sync, _, _ := newRiderSync(t, "rider-1")

	if _, err := sync.RequestRide(context.Background(), newTestRide("", "", "")); err != nil {
		t.Fatalf("expected first request to succeed, got %v", err)
	}

	_, err := sync.RequestRide(context.Background(), newTestRide("", "", ""))
	if !errors.Is(err, lifecycle.ErrAlreadyActiveRide) {
		t.Errorf("expected ErrAlreadyActiveRide, got %v", err)
	}
}

func TestRequestRide_WrongRole(t *testing.T) {
	rideRepo := NewMockRideRepository()
	sync := newDriverSync(t, "driver-1", rideRepo, NewMockRelay())

	if _, err := sync.RequestRide(context.Background(), newTestRide("", "", "")); !errors.Is(err, lifecycle.ErrWrongRole) {
		t.Errorf("expected ErrWrongRole, got %v", err)
	}
}

func TestCancelRide_AllowedWhileCancellable(t *testing.T) {
	testCases := []struct {
		status  domain.RideStatus
		allowed bool
	}{
		{domain.RideStatusSearching, true},
		{domain.RideStatusDriverAssigned, true},
		{domain.RideStatusEnRoute, true},
		{domain.RideStatusArrived, false},
		{domain.RideStatusInProgress, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			sync, rideRepo, _ := newRiderSync(t, "rider-1")
			ride := newTestRide("ride-1", "rider-1", tc.status)
			rideRepo.AddRide(ride)
			sync.Apply(lifecycle.Update{Source: lifecycle.SourceStore, Ride: *ride})

			err := sync.CancelRide(context.Background())
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected cancel allowed from %s, got %v", tc.status, err)
				}
				if got := rideRepo.GetRide("ride-1").Status; got != domain.RideStatusCancelled {
					t.Errorf("expected cancelled persisted, got %s", got)
				}
				if _, ok := sync.Current(); ok {
					t.Error("expected tracked ride cleared after cancel")
				}
			} else if !errors.Is(err, lifecycle.ErrNotCancellable) {
				t.Errorf("expected ErrNotCancellable from %s, got %v", tc.status, err)
			}
		})
	}
}

func TestCancelRide_FailedPreconditionRollsBack(t *testing.T) {
	sync, rideRepo, _ := newRiderSync(t, "rider-1")
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusEnRoute)
	rideRepo.AddRide(ride)
	sync.Apply(lifecycle.Update{Source: lifecycle.SourceStore, Ride: *ride})

	// The driver advanced to arrived before the cancel write landed.
	arrived := rideRepo.GetRide("ride-1")
	arrived.Status = domain.RideStatusArrived
	rideRepo.AddRide(arrived)

	err := sync.CancelRide(context.Background())
	if !errors.Is(err, repository.ErrRideUnavailable) {
		t.Fatalf("expected ErrRideUnavailable, got %v", err)
	}

	view, ok := sync.Current()
	if !ok {
		t.Fatal("expected ride still tracked after failed cancel")
	}
	if view.Ride.Status != domain.RideStatusEnRoute {
		t.Errorf("expected view rolled back to confirmed en_route, got %s", view.Ride.Status)
	}
}

func TestAcceptRide_TwoDriverRaceHasOneWinner(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusSearching)
	rideRepo.AddRide(ride)

	syncA := newDriverSync(t, "driver-a", rideRepo, NewMockRelay())
	syncB := newDriverSync(t, "driver-b", rideRepo, NewMockRelay())

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, s := range []*lifecycle.Synchronizer{syncA, syncB} {
		wg.Add(1)
		go func(i int, s *lifecycle.Synchronizer) {
			defer wg.Done()
			r := *ride
			results[i] = s.AcceptRide(context.Background(), &r)
		}(i, s)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrRideUnavailable):
			losses++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got %d wins %d losses", wins, losses)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusDriverAssigned {
		t.Errorf("expected driver_assigned persisted, got %s", stored.Status)
	}
	if stored.DriverID != "driver-a" && stored.DriverID != "driver-b" {
		t.Errorf("expected winning driver recorded, got %q", stored.DriverID)
	}
}

func TestAcceptRide_LostClaimDropsView(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusSearching)
	rideRepo.AddRide(ride)

	// Someone else already took it.
	taken := rideRepo.GetRide("ride-1")
	taken.Status = domain.RideStatusDriverAssigned
	taken.DriverID = "driver-x"
	rideRepo.AddRide(taken)

	mockRelay := NewMockRelay()
	sync := newDriverSync(t, "driver-1", rideRepo, mockRelay)

	err := sync.AcceptRide(context.Background(), ride)
	if !errors.Is(err, repository.ErrRideUnavailable) {
		t.Fatalf("expected ErrRideUnavailable, got %v", err)
	}
	if _, ok := sync.Current(); ok {
		t.Error("expected tentative view dropped after lost claim")
	}
	if mockRelay.CountPublished(relay.EventRideAccepted) != 0 {
		t.Error("expected no ride_accepted published for a lost claim")
	}
}

func TestAcceptRide_WinnerPublishesAssignment(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusSearching)
	rideRepo.AddRide(ride)

	mockRelay := NewMockRelay()
	sync := newDriverSync(t, "driver-1", rideRepo, mockRelay)

	if err := sync.AcceptRide(context.Background(), ride); err != nil {
		t.Fatalf("expected accept to succeed, got %v", err)
	}

	if mockRelay.CountPublished(relay.EventRideAccepted) != 1 {
		t.Error("expected ride_accepted published")
	}
	if mockRelay.CountPublished(relay.EventRideAssigned) != 1 {
		t.Error("expected ride_assigned published")
	}

	view, ok := sync.Current()
	if !ok || view.Ride.DriverID != "driver-1" {
		t.Error("expected accepted ride tracked with driver id")
	}
}

func TestAdvanceStatus_WalksChainOneStep(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusDriverAssigned)
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	sync := newDriverSync(t, "driver-1", rideRepo, NewMockRelay())
	sync.Apply(lifecycle.Update{Source: lifecycle.SourceStore, Ride: *ride})

	want := []domain.RideStatus{
		domain.RideStatusEnRoute,
		domain.RideStatusArrived,
		domain.RideStatusInProgress,
	}
	for _, expected := range want {
		if err := sync.AdvanceStatus(context.Background()); err != nil {
			t.Fatalf("expected advance to %s, got %v", expected, err)
		}
		view, _ := sync.Current()
		if view.Ride.Status != expected {
			t.Fatalf("expected %s, got %s", expected, view.Ride.Status)
		}
		if got := rideRepo.GetRide("ride-1").Status; got != expected {
			t.Fatalf("expected %s persisted, got %s", expected, got)
		}
	}

	// The final step is completion, which has its own operation.
	if err := sync.AdvanceStatus(context.Background()); !errors.Is(err, lifecycle.ErrNoForwardStep) {
		t.Errorf("expected ErrNoForwardStep from in_progress, got %v", err)
	}
}

func TestCompleteRide_SetsActualFare(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusInProgress)
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	mockRelay := NewMockRelay()
	sync := newDriverSync(t, "driver-1", rideRepo, mockRelay)
	sync.Apply(lifecycle.Update{Source: lifecycle.SourceStore, Ride: *ride})

	if err := sync.CompleteRide(context.Background()); err != nil {
		t.Fatalf("expected completion to succeed, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", stored.Status)
	}
	if stored.ActualFare != ride.EstimatedFare {
		t.Errorf("expected actual fare %v to mirror estimate, got %v", ride.EstimatedFare, stored.ActualFare)
	}
	if mockRelay.CountPublished(relay.EventRideCompleted) != 1 {
		t.Error("expected ride_completed published")
	}
	if _, ok := sync.Current(); ok {
		t.Error("expected tracked ride cleared after completion")
	}
}

func TestCompleteRide_RequiresInProgress(t *testing.T) {
	rideRepo := NewMockRideRepository()
	ride := newTestRide("ride-1", "rider-1", domain.RideStatusArrived)
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	sync := newDriverSync(t, "driver-1", rideRepo, NewMockRelay())
	sync.Apply(lifecycle.Update{Source: lifecycle.SourceStore, Ride: *ride})

	if err := sync.CompleteRide(context.Background()); !errors.Is(err, lifecycle.ErrNoForwardStep) {
		t.Errorf("expected ErrNoForwardStep, got %v", err)
	}
}
