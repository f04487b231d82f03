package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hailo/internal/domain"
	"hailo/internal/lifecycle"
	"hailo/internal/repository"
)

// ProfileHandler handles HTTP requests for user profiles.
type ProfileHandler struct {
	profiles lifecycle.ProfileSource
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles lifecycle.ProfileSource) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// VehicleResponse is the HTTP shape of a driver's vehicle.
type VehicleResponse struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
}

// ProfileResponse is the HTTP shape of a profile record.
type ProfileResponse struct {
	ID          string           `json:"id"`
	FullName    string           `json:"full_name"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
	PhoneNumber string           `json:"phone_number,omitempty"`
	Rating      float64          `json:"rating"`
	TotalRides  int              `json:"total_rides"`
	IsDriver    bool             `json:"is_driver"`
	Vehicle     *VehicleResponse `json:"vehicle,omitempty"`
	CreatedAt   string           `json:"created_at"`
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:          p.ID,
		FullName:    p.FullName,
		AvatarURL:   p.AvatarURL,
		PhoneNumber: p.PhoneNumber,
		Rating:      p.Rating,
		TotalRides:  p.TotalRides,
		IsDriver:    p.IsDriver,
		CreatedAt:   p.CreatedAt.Format(timeFormat),
	}
	if p.IsDriver {
		resp.Vehicle = &VehicleResponse{
			Make:         p.Vehicle.Make,
			Model:        p.Vehicle.Model,
			Color:        p.Vehicle.Color,
			LicensePlate: p.Vehicle.LicensePlate,
		}
	}
	return resp
}

// GetProfile handles GET /v1/profiles/:id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		respondError(c, repository.ErrNotFound)
		return
	}

	respondJSON(c, http.StatusOK, toProfileResponse(profile))
}
