package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/repository"
	"hailo/internal/views"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	registry *views.Registry
	rideRepo repository.RideRepository
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(registry *views.Registry, rideRepo repository.RideRepository) *RideHandler {
	return &RideHandler{
		registry: registry,
		rideRepo: rideRepo,
	}
}

// LocationPayload is a pickup or dropoff point in request bodies.
type LocationPayload struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

func (p LocationPayload) toDomain() domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat, Lng: p.Lng, Address: p.Address}
}

// CreateRideRequest is the HTTP request body for requesting a ride.
type CreateRideRequest struct {
	RiderID string          `json:"rider_id"`
	Pickup  LocationPayload `json:"pickup"`
	Dropoff LocationPayload `json:"dropoff"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	RiderID string `json:"rider_id"`
}

// RateRideRequest is the HTTP request body for rating a completed ride.
type RateRideRequest struct {
	RiderID  string `json:"rider_id"`
	DriverID string `json:"driver_id"`
	Stars    int    `json:"stars"`
}

// RideResponse is the HTTP shape of a ride record.
type RideResponse struct {
	ID                string           `json:"id"`
	RiderID           string           `json:"rider_id"`
	DriverID          string           `json:"driver_id,omitempty"`
	Pickup            LocationPayload  `json:"pickup"`
	Dropoff           LocationPayload  `json:"dropoff"`
	EstimatedFare     float64          `json:"estimated_fare"`
	EstimatedDuration int              `json:"estimated_duration"`
	DistanceKm        float64          `json:"distance_km"`
	ActualFare        float64          `json:"actual_fare,omitempty"`
	Status            string           `json:"status"`
	Driver            *ProfileResponse `json:"driver,omitempty"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	return RideResponse{
		ID:                ride.ID,
		RiderID:           ride.RiderID,
		DriverID:          ride.DriverID,
		Pickup:            LocationPayload{Lat: ride.Pickup.Lat, Lng: ride.Pickup.Lng, Address: ride.Pickup.Address},
		Dropoff:           LocationPayload{Lat: ride.Dropoff.Lat, Lng: ride.Dropoff.Lng, Address: ride.Dropoff.Address},
		EstimatedFare:     ride.EstimatedFare,
		EstimatedDuration: ride.EstimatedDuration,
		DistanceKm:        ride.DistanceKm,
		ActualFare:        ride.ActualFare,
		Status:            string(ride.Status),
		CreatedAt:         ride.CreatedAt.Format(timeFormat),
		UpdatedAt:         ride.UpdatedAt.Format(timeFormat),
	}
}

func toViewResponse(view lifecycle.View) RideResponse {
	resp := toRideResponse(&view.Ride)
	if view.Driver != nil {
		p := toProfileResponse(view.Driver)
		resp.Driver = &p
	}
	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	if req.RiderID == "" {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "rider_id is required"})
		return
	}

	ctx := c.Request.Context()
	view, err := h.registry.Rider(ctx, req.RiderID)
	if err != nil {
		respondError(c, err)
		return
	}

	ride, err := view.Request(ctx, req.Pickup.toDomain(), req.Dropoff.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListAvailable handles GET /v1/rides/available
func (h *RideHandler) ListAvailable(c *gin.Context) {
	driverID := c.Query("driver_id")
	if driverID == "" {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "driver_id is required"})
		return
	}

	view, err := h.registry.Driver(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	rides := view.Available()
	out := make([]RideResponse, 0, len(rides))
	for i := range rides {
		out = append(out, toRideResponse(&rides[i]))
	}
	respondJSON(c, http.StatusOK, gin.H{"rides": out})
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	if req.RiderID == "" {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "rider_id is required"})
		return
	}

	ctx := c.Request.Context()
	view, err := h.registry.Rider(ctx, req.RiderID)
	if err != nil {
		respondError(c, err)
		return
	}

	current, ok := view.Current()
	if !ok || current.Ride.ID != c.Param("id") {
		respondError(c, lifecycle.ErrNoActiveRide)
		return
	}

	if err := view.Cancel(ctx); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": string(domain.RideStatusCancelled)})
}

// RateRide handles POST /v1/rides/:id/rating
func (h *RideHandler) RateRide(c *gin.Context) {
	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	if req.RiderID == "" || req.DriverID == "" {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "rider_id and driver_id are required"})
		return
	}

	ctx := c.Request.Context()
	view, err := h.registry.Rider(ctx, req.RiderID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := view.RateDriver(ctx, c.Param("id"), req.DriverID, req.Stars); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"ride_id": c.Param("id"), "stars": req.Stars})
}
