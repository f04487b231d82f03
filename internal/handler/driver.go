package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hailo/internal/views"
)

// DriverHandler handles HTTP requests for driver sessions.
type DriverHandler struct {
	registry *views.Registry
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(registry *views.Registry) *DriverHandler {
	return &DriverHandler{registry: registry}
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	RideID string `json:"ride_id"`
}

// EarningsResponse is the HTTP shape of a driver's earnings summary.
type EarningsResponse struct {
	Today float64 `json:"today"`
	Week  float64 `json:"week"`
	Total float64 `json:"total"`
}

func (h *DriverHandler) view(c *gin.Context) (*views.DriverView, bool) {
	view, err := h.registry.Driver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return view, true
}

// GoOnline handles POST /v1/drivers/:id/online
func (h *DriverHandler) GoOnline(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	if err := view.GoOnline(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"online": true})
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	view.GoOffline()
	respondJSON(c, http.StatusOK, gin.H{"online": false})
}

// AcceptRide handles POST /v1/drivers/:id/accept
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	if req.RideID == "" {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "ride_id is required"})
		return
	}

	view, ok := h.view(c)
	if !ok {
		return
	}

	if err := view.Accept(c.Request.Context(), req.RideID); err != nil {
		respondError(c, err)
		return
	}

	current, ok := view.Current()
	if !ok {
		respondJSON(c, http.StatusOK, gin.H{"ride_id": req.RideID})
		return
	}
	respondJSON(c, http.StatusOK, toViewResponse(current))
}

// DeclineRide handles POST /v1/drivers/:id/decline
func (h *DriverHandler) DeclineRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	view, ok := h.view(c)
	if !ok {
		return
	}

	view.Decline(req.RideID)
	respondJSON(c, http.StatusOK, gin.H{"ride_id": req.RideID})
}

// AdvanceRide handles POST /v1/drivers/:id/advance
func (h *DriverHandler) AdvanceRide(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	if err := view.Advance(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	current, _ := view.Current()
	respondJSON(c, http.StatusOK, toViewResponse(current))
}

// CompleteRide handles POST /v1/drivers/:id/complete
func (h *DriverHandler) CompleteRide(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	if err := view.Complete(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"completed": true})
}

// GetEarnings handles GET /v1/drivers/:id/earnings
func (h *DriverHandler) GetEarnings(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}

	earnings, err := view.EarningsSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EarningsResponse{
		Today: earnings.Today,
		Week:  earnings.Week,
		Total: earnings.Total,
	})
}
