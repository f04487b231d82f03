package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hailo/internal/config"
	"hailo/internal/domain"
	"hailo/internal/estimate"
)

// EstimateHandler handles HTTP requests for fare estimates.
type EstimateHandler struct {
	pricing config.PricingConfig
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(pricing config.PricingConfig) *EstimateHandler {
	return &EstimateHandler{pricing: pricing}
}

// EstimateResponse is the HTTP shape of a fare quote.
type EstimateResponse struct {
	DistanceKm  float64 `json:"distance_km"`
	Fare        float64 `json:"fare"`
	DurationMin int     `json:"duration_min"`
}

// GetEstimate handles GET /v1/estimates
func (h *EstimateHandler) GetEstimate(c *gin.Context) {
	pickup, err := pointFromQuery(c, "pickup_lat", "pickup_lng")
	if err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	dropoff, err := pointFromQuery(c, "dropoff_lat", "dropoff_lng")
	if err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quote := estimate.NewQuote(pickup, dropoff, h.pricing)
	respondJSON(c, http.StatusOK, EstimateResponse{
		DistanceKm:  quote.DistanceKm,
		Fare:        quote.Fare,
		DurationMin: quote.DurationMin,
	})
}

func pointFromQuery(c *gin.Context, latKey, lngKey string) (domain.GeoPoint, error) {
	lat, err := strconv.ParseFloat(c.Query(latKey), 64)
	if err != nil {
		return domain.GeoPoint{}, &paramError{key: latKey}
	}
	lng, err := strconv.ParseFloat(c.Query(lngKey), 64)
	if err != nil {
		return domain.GeoPoint{}, &paramError{key: lngKey}
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, nil
}

type paramError struct {
	key string
}

func (e *paramError) Error() string {
	return e.key + " must be a valid number"
}
