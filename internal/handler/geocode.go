package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hailo/internal/geocode"
)

// GeocodeHandler handles HTTP requests for address lookup.
type GeocodeHandler struct {
	geocoder geocode.Searcher
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder geocode.Searcher) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// GeocodeResultResponse is one address candidate.
type GeocodeResultResponse struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Search handles GET /v1/geocode?q=
func (h *GeocodeHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 3 {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "query must be at least 3 characters"})
		return
	}

	results, err := h.geocoder.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]GeocodeResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, GeocodeResultResponse{DisplayName: r.DisplayName, Lat: r.Lat, Lng: r.Lng})
	}
	respondJSON(c, http.StatusOK, gin.H{"results": out})
}
