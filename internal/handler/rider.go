package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hailo/internal/lifecycle"
	"hailo/internal/views"
)

// RiderHandler handles HTTP requests for rider sessions.
type RiderHandler struct {
	registry *views.Registry
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(registry *views.Registry) *RiderHandler {
	return &RiderHandler{registry: registry}
}

// MarkerResponse is one map marker.
type MarkerResponse struct {
	ID   string  `json:"id"`
	Kind string  `json:"kind"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// RouteResponse is one map polyline.
type RouteResponse struct {
	Kind   string       `json:"kind"`
	Points [][2]float64 `json:"points"`
}

// MapResponse is the derived map annotation set for the active ride.
type MapResponse struct {
	Markers []MarkerResponse `json:"markers"`
	Routes  []RouteResponse  `json:"routes"`
}

func toMapResponse(p lifecycle.Projection) MapResponse {
	resp := MapResponse{
		Markers: make([]MarkerResponse, 0, len(p.Markers)),
		Routes:  make([]RouteResponse, 0, len(p.Routes)),
	}
	for _, m := range p.Markers {
		resp.Markers = append(resp.Markers, MarkerResponse{ID: m.ID, Kind: string(m.Kind), Lat: m.Lat, Lng: m.Lng})
	}
	for _, r := range p.Routes {
		resp.Routes = append(resp.Routes, RouteResponse{Kind: string(r.Kind), Points: r.Points})
	}
	return resp
}

// GetActiveRide handles GET /v1/riders/:id/active
func (h *RiderHandler) GetActiveRide(c *gin.Context) {
	view, err := h.registry.Rider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	current, ok := view.Current()
	if !ok {
		respondError(c, lifecycle.ErrNoActiveRide)
		return
	}

	resp := gin.H{"ride": toViewResponse(current)}
	if projection, ok := view.Map(); ok {
		resp["map"] = toMapResponse(projection)
	}
	respondJSON(c, http.StatusOK, resp)
}
