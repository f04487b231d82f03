package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"hailo/internal/domain"
)

// Event names carried by the relay. Each ride event's payload includes at
// least a ride id.
const (
	EventNewRideRequest    = "new_ride_request"
	EventRideUpdate        = "ride_update"
	EventRideAssigned      = "ride_assigned"
	EventRideAccepted      = "ride_accepted"
	EventRideStatusUpdated = "ride_status_updated"
	EventRideCompleted     = "ride_completed"
	EventDriverOnline      = "driver_online"
	EventDriverOffline     = "driver_offline"

	eventJoinRoom  = "join_room"
	eventLeaveRoom = "leave_room"
)

// envelope is the wire format: an event name plus an opaque JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RideEvent is the validated form of a ride-scoped relay payload. The relay
// carries whatever shape the publisher sent; this is the narrow set of
// fields the synchronizer is allowed to see.
type RideEvent struct {
	RideID     string
	RiderID    string
	DriverID   string
	Status     domain.RideStatus
	ActualFare float64

	// Ride is the full record snapshot when the payload carried one
	// (ride_update wraps the changed row, ride_accepted is flattened).
	Ride *domain.Ride
}

var (
	errMissingRideID   = errors.New("payload missing ride id")
	errMissingDriverID = errors.New("payload missing driver id")
	errBadStatus       = errors.New("payload carries unknown status")
)

// decodeDriverEvent validates a driver presence payload, which carries a
// driver id but no ride id.
func decodeDriverEvent(data json.RawMessage) (RideEvent, error) {
	var raw rawRide
	if err := json.Unmarshal(data, &raw); err != nil {
		return RideEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if raw.DriverID == "" {
		return RideEvent{}, errMissingDriverID
	}
	return RideEvent{DriverID: raw.DriverID}, nil
}

// rawRide mirrors the JSON row shape the original publishers emit.
type rawRide struct {
	ID                string  `json:"id"`
	RideID            string  `json:"ride_id"`
	RiderID           string  `json:"rider_id"`
	DriverID          string  `json:"driver_id"`
	Status            string  `json:"status"`
	EstimatedFare     float64 `json:"estimated_fare"`
	EstimatedDuration int     `json:"estimated_duration"`
	DistanceKm        float64 `json:"distance"`
	ActualFare        float64 `json:"actual_fare"`
	Pickup            *struct {
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
		Address string  `json:"address"`
	} `json:"pickup_location"`
	Dropoff *struct {
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
		Address string  `json:"address"`
	} `json:"dropoff_location"`

	// ride_update events wrap the changed row.
	New *rawRide `json:"new"`
}

// decodeRideEvent validates and coerces a ride-scoped payload. Malformed
// payloads are rejected here so nothing downstream has to trust the wire.
func decodeRideEvent(data json.RawMessage) (RideEvent, error) {
	var raw rawRide
	if err := json.Unmarshal(data, &raw); err != nil {
		return RideEvent{}, fmt.Errorf("decode payload: %w", err)
	}

	// Unwrap the change-feed envelope shape.
	if raw.New != nil {
		raw = *raw.New
	}

	rideID := raw.RideID
	if rideID == "" {
		rideID = raw.ID
	}
	if rideID == "" {
		return RideEvent{}, errMissingRideID
	}

	status := domain.RideStatus(raw.Status)
	if raw.Status != "" && !status.IsValid() {
		return RideEvent{}, errBadStatus
	}

	ev := RideEvent{
		RideID:     rideID,
		RiderID:    raw.RiderID,
		DriverID:   raw.DriverID,
		Status:     status,
		ActualFare: raw.ActualFare,
	}

	// Only surface a full snapshot when the payload actually carried the
	// record fields, not just ids.
	if raw.Pickup != nil && raw.Dropoff != nil {
		ev.Ride = &domain.Ride{
			ID:                rideID,
			RiderID:           raw.RiderID,
			DriverID:          raw.DriverID,
			Pickup:            domain.GeoPoint{Lat: raw.Pickup.Lat, Lng: raw.Pickup.Lng, Address: raw.Pickup.Address},
			Dropoff:           domain.GeoPoint{Lat: raw.Dropoff.Lat, Lng: raw.Dropoff.Lng, Address: raw.Dropoff.Address},
			EstimatedFare:     raw.EstimatedFare,
			EstimatedDuration: raw.EstimatedDuration,
			DistanceKm:        raw.DistanceKm,
			ActualFare:        raw.ActualFare,
			Status:            status,
		}
	}

	return ev, nil
}

// ridePayload builds the outbound JSON body for a ride event.
func ridePayload(ride *domain.Ride) map[string]any {
	return map[string]any{
		"id":        ride.ID,
		"ride_id":   ride.ID,
		"rider_id":  ride.RiderID,
		"driver_id": ride.DriverID,
		"status":    string(ride.Status),
		"pickup_location": map[string]any{
			"lat": ride.Pickup.Lat, "lng": ride.Pickup.Lng, "address": ride.Pickup.Address,
		},
		"dropoff_location": map[string]any{
			"lat": ride.Dropoff.Lat, "lng": ride.Dropoff.Lng, "address": ride.Dropoff.Address,
		},
		"estimated_fare":     ride.EstimatedFare,
		"estimated_duration": ride.EstimatedDuration,
		"distance":           ride.DistanceKm,
		"actual_fare":        ride.ActualFare,
	}
}
