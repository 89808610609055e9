package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/geo"
	"foodbridge/internal/repository"
	"foodbridge/internal/service"
)

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

// mapErrorToHTTPStatus maps engine errors to HTTP status codes. Every
// distinguishable failure of the taxonomy surfaces as itself; nothing is
// swallowed into a generic 500 unless genuinely unknown.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDonorID),
		errors.Is(err, service.ErrInvalidDonationID),
		errors.Is(err, service.ErrInvalidActorID),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidFoodDetails),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrInvalidExpiry),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, geo.ErrInvalidCoordinates):
		return http.StatusBadRequest

	// Ownership errors
	case errors.Is(err, service.ErrNotDonationOwner):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDonationTerminal),
		errors.Is(err, service.ErrDonationExpired),
		errors.Is(err, service.ErrSlotTaken),
		errors.Is(err, service.ErrMatchingInProgress):
		return http.StatusConflict

	// Policy failure at assignment time
	case errors.Is(err, service.ErrIneligible):
		return http.StatusUnprocessableEntity

	// Service unavailable
	case errors.Is(err, service.ErrNoCandidateAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
