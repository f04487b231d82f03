package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusSearching      RideStatus = "searching"
	RideStatusDriverAssigned RideStatus = "driver_assigned"
	RideStatusEnRoute        RideStatus = "en_route"
	RideStatusArrived        RideStatus = "arrived"
	RideStatusInProgress     RideStatus = "in_progress"
	RideStatusCompleted      RideStatus = "completed"
	RideStatusCancelled      RideStatus = "cancelled"
)

// statusOrder is the fixed forward chain. cancelled sits outside the chain
// and is reachable from any non-terminal status.
var statusOrder = map[RideStatus]int{
	RideStatusSearching:      0,
	RideStatusDriverAssigned: 1,
	RideStatusEnRoute:        2,
	RideStatusArrived:        3,
	RideStatusInProgress:     4,
	RideStatusCompleted:      5,
}

// IsValid reports whether s is one of the known statuses.
func (s RideStatus) IsValid() bool {
	if s == RideStatusCancelled {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// IsTerminal reports whether the status ends the ride lifecycle.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Next returns the next status in the forward chain, or false when
// there is no forward step from s.
func (s RideStatus) Next() (RideStatus, bool) {
	switch s {
	case RideStatusDriverAssigned:
		return RideStatusEnRoute, true
	case RideStatusEnRoute:
		return RideStatusArrived, true
	case RideStatusArrived:
		return RideStatusInProgress, true
	case RideStatusInProgress:
		return RideStatusCompleted, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether moving from s to next is legal:
// forward along the chain, or a jump to cancelled from any non-terminal
// status. No backward transitions.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == RideStatusCancelled {
		return true
	}
	from, okFrom := statusOrder[s]
	to, okTo := statusOrder[next]
	return okFrom && okTo && to > from
}

// CancellableByRider reports whether the rider may still cancel.
// Once the driver has arrived the ride is committed.
func (s RideStatus) CancellableByRider() bool {
	switch s {
	case RideStatusSearching, RideStatusDriverAssigned, RideStatusEnRoute:
		return true
	default:
		return false
	}
}

// ActiveStatuses is the set of non-terminal statuses, in chain order.
var ActiveStatuses = []RideStatus{
	RideStatusSearching,
	RideStatusDriverAssigned,
	RideStatusEnRoute,
	RideStatusArrived,
	RideStatusInProgress,
}

// GeoPoint is a geographic location with its display address.
type GeoPoint struct {
	Lat     float64
	Lng     float64
	Address string
}

// Ride represents a ride request in the system. DriverID is empty until a
// driver accepts; ActualFare is set only at completion.
type Ride struct {
	ID                string
	RiderID           string
	DriverID          string
	Pickup            GeoPoint
	Dropoff           GeoPoint
	EstimatedFare     float64
	EstimatedDuration int // minutes
	DistanceKm        float64
	ActualFare        float64
	Status            RideStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Role distinguishes which side of a ride a user is on.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// RoomID returns the relay room for a user in the given role.
func RoomID(role Role, userID string) string {
	return string(role) + "_" + userID
}

// RideRoomID returns the relay room shared by both parties of a ride.
func RideRoomID(rideID string) string {
	return "ride_" + rideID
}
