package domain

import "testing"

func TestRideStatus_ForwardChain(t *testing.T) {
	chain := []RideStatus{
		RideStatusDriverAssigned,
		RideStatusEnRoute,
		RideStatusArrived,
		RideStatusInProgress,
		RideStatusCompleted,
	}

	current := RideStatusDriverAssigned
	for _, expected := range chain[1:] {
		next, ok := current.Next()
		if !ok {
			t.Fatalf("expected forward step from %s", current)
		}
		if next != expected {
			t.Fatalf("expected %s after %s, got %s", expected, current, next)
		}
		current = next
	}

	if _, ok := RideStatusCompleted.Next(); ok {
		t.Error("expected no forward step from completed")
	}
	if _, ok := RideStatusSearching.Next(); ok {
		t.Error("expected no forward step from searching; assignment goes through accept")
	}
}

func TestRideStatus_NoBackwardTransitions(t *testing.T) {
	if RideStatusArrived.CanTransitionTo(RideStatusEnRoute) {
		t.Error("expected backward transition rejected")
	}
	if RideStatusCompleted.CanTransitionTo(RideStatusCancelled) {
		t.Error("expected terminal status to reject all transitions")
	}
	if RideStatusCancelled.CanTransitionTo(RideStatusSearching) {
		t.Error("expected cancelled to reject all transitions")
	}
}

func TestRideStatus_CancelledReachableFromAnyNonTerminal(t *testing.T) {
	for _, s := range ActiveStatuses {
		if !s.CanTransitionTo(RideStatusCancelled) {
			t.Errorf("expected cancel allowed from %s", s)
		}
	}
}

func TestRideStatus_CancellableByRider(t *testing.T) {
	allowed := map[RideStatus]bool{
		RideStatusSearching:      true,
		RideStatusDriverAssigned: true,
		RideStatusEnRoute:        true,
		RideStatusArrived:        false,
		RideStatusInProgress:     false,
		RideStatusCompleted:      false,
		RideStatusCancelled:      false,
	}
	for s, want := range allowed {
		if got := s.CancellableByRider(); got != want {
			t.Errorf("CancellableByRider(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestRoomIDs(t *testing.T) {
	if got := RoomID(RoleRider, "u1"); got != "rider_u1" {
		t.Errorf("expected rider_u1, got %s", got)
	}
	if got := RoomID(RoleDriver, "u2"); got != "driver_u2" {
		t.Errorf("expected driver_u2, got %s", got)
	}
	if got := RideRoomID("r1"); got != "ride_r1" {
		t.Errorf("expected ride_r1, got %s", got)
	}
}
