package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hailo/internal/lifecycle"
	"hailo/internal/repository"
	"hailo/internal/views"
)

const timeFormat = time.RFC3339

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps view/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, lifecycle.ErrNoActiveRide),
		errors.Is(err, views.ErrRideNotListed):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, views.ErrMissingPickup),
		errors.Is(err, views.ErrMissingDropoff),
		errors.Is(err, views.ErrInvalidLocation),
		errors.Is(err, views.ErrInvalidRating):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, repository.ErrRideUnavailable),
		errors.Is(err, lifecycle.ErrNotCancellable),
		errors.Is(err, lifecycle.ErrNoForwardStep),
		errors.Is(err, lifecycle.ErrAlreadyActiveRide),
		errors.Is(err, views.ErrOffline):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, lifecycle.ErrWrongRole):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
