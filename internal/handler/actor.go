package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/domain"
	"foodbridge/internal/service"
)

// ActorHandler handles HTTP requests for actors.
type ActorHandler struct {
	actorService *service.ActorService
}

// NewActorHandler creates a new ActorHandler.
func NewActorHandler(actorService *service.ActorService) *ActorHandler {
	return &ActorHandler{actorService: actorService}
}

// RegisterActorRequest is the HTTP request body for registering an actor.
type RegisterActorRequest struct {
	Role          string  `json:"role"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	MaxDistanceKm float64 `json:"max_distance_km,omitempty"`
	MaxQuantityKg float64 `json:"max_quantity_kg,omitempty"`
	Vehicle       string  `json:"vehicle,omitempty"`
}

// UpdateLocationRequest is the HTTP request body for a position update.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AvailabilityRequest is the HTTP request body for an availability toggle.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// ActorResponse is the HTTP representation of an actor.
type ActorResponse struct {
	ID                  string  `json:"id"`
	Role                string  `json:"role"`
	Name                string  `json:"name"`
	Phone               string  `json:"phone,omitempty"`
	Lat                 float64 `json:"lat"`
	Lng                 float64 `json:"lng"`
	Available           bool    `json:"available"`
	MaxDistanceKm       float64 `json:"max_distance_km"`
	MaxQuantityKg       float64 `json:"max_quantity_kg,omitempty"`
	AvailableQuantityKg float64 `json:"available_quantity_kg,omitempty"`
	Vehicle             string  `json:"vehicle,omitempty"`
	AverageRating       float64 `json:"average_rating"`
	TotalInteractions   int     `json:"total_interactions"`
}

func toActorResponse(a *domain.Actor) ActorResponse {
	return ActorResponse{
		ID:                  a.ID,
		Role:                string(a.Role),
		Name:                a.Name,
		Phone:               a.Phone,
		Lat:                 a.Lat,
		Lng:                 a.Lng,
		Available:           a.Available,
		MaxDistanceKm:       a.MaxDistanceKm,
		MaxQuantityKg:       a.MaxQuantityKg,
		AvailableQuantityKg: a.AvailableQuantityKg,
		Vehicle:             string(a.Vehicle),
		AverageRating:       a.AverageRating,
		TotalInteractions:   a.TotalInteractions,
	}
}

// Register handles POST /v1/actors/register
func (h *ActorHandler) Register(c *gin.Context) {
	var req RegisterActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actor, err := h.actorService.Register(c.Request.Context(), service.RegisterActorRequest{
		Role:          domain.ActorRole(req.Role),
		Name:          req.Name,
		Phone:         req.Phone,
		Lat:           req.Lat,
		Lng:           req.Lng,
		MaxDistanceKm: req.MaxDistanceKm,
		MaxQuantityKg: req.MaxQuantityKg,
		Vehicle:       domain.VehicleType(req.Vehicle),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toActorResponse(actor))
}

// GetAll handles GET /v1/actors
func (h *ActorHandler) GetAll(c *gin.Context) {
	actors, err := h.actorService.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ActorResponse, 0, len(actors))
	for _, a := range actors {
		response = append(response, toActorResponse(a))
	}

	respondJSON(c, http.StatusOK, response)
}

// Nearby handles GET /v1/actors/nearby
func (h *ActorHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng are required"})
		return
	}

	radiusKm := 10.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius_km"})
			return
		}
		radiusKm = parsed
	}

	candidates, err := h.actorService.Nearby(c.Request.Context(), domain.ActorRole(c.Query("role")), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	type nearbyEntry struct {
		ActorID    string  `json:"actor_id"`
		Lat        float64 `json:"lat"`
		Lng        float64 `json:"lng"`
		DistanceKm float64 `json:"distance_km"`
	}

	response := make([]nearbyEntry, 0, len(candidates))
	for _, candidate := range candidates {
		response = append(response, nearbyEntry{
			ActorID:    candidate.ActorID,
			Lat:        candidate.Lat,
			Lng:        candidate.Lng,
			DistanceKm: candidate.DistanceKm,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// UpdateLocation handles POST /v1/actors/:id/location
func (h *ActorHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.actorService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		ActorID: c.Param("id"),
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "updated"})
}

// RatingRequest is the HTTP request body for rating an actor.
type RatingRequest struct {
	Rating float64 `json:"rating"`
}

// Rate handles POST /v1/actors/:id/rating
func (h *ActorHandler) Rate(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actor, err := h.actorService.AddRating(c.Request.Context(), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toActorResponse(actor))
}

// SetAvailability handles POST /v1/actors/:id/availability
func (h *ActorHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.actorService.SetAvailability(c.Request.Context(), c.Param("id"), req.Available); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "updated"})
}
