package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/domain"
	"foodbridge/internal/repository"
	"foodbridge/internal/service"
)

// DonationHandler handles HTTP requests for donations.
type DonationHandler struct {
	coordinator  *service.MatchingCoordinator
	donationRepo repository.DonationRepository
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(coordinator *service.MatchingCoordinator, donationRepo repository.DonationRepository) *DonationHandler {
	return &DonationHandler{
		coordinator:  coordinator,
		donationRepo: donationRepo,
	}
}

// SubmitDonationRequest is the HTTP request body for posting a donation.
type SubmitDonationRequest struct {
	DonorID             string  `json:"donor_id"`
	FoodDetails         string  `json:"food_details"`
	FoodType            string  `json:"food_type,omitempty"`
	QuantityKg          float64 `json:"quantity_kg"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
	Lat                 float64 `json:"lat"`
	Lng                 float64 `json:"lng"`
	PickupWindowStart   string  `json:"pickup_window_start,omitempty"` // RFC 3339
	ExpiryTime          string  `json:"expiry_time"`                   // RFC 3339
}

// AssignRequest is the HTTP request body for assigning an actor.
type AssignRequest struct {
	ActorID string `json:"actor_id"`
}

// OwnerRequest carries the donor id for owner-gated operations.
type OwnerRequest struct {
	DonorID string `json:"donor_id,omitempty"`
}

// DonationResponse is the HTTP representation of a donation.
type DonationResponse struct {
	ID                  string  `json:"id"`
	DonorID             string  `json:"donor_id"`
	FoodDetails         string  `json:"food_details"`
	FoodType            string  `json:"food_type"`
	QuantityKg          float64 `json:"quantity_kg"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
	Lat                 float64 `json:"lat"`
	Lng                 float64 `json:"lng"`
	Status              string  `json:"status"`
	AssignedNGOID       string  `json:"assigned_ngo_id,omitempty"`
	AssignedVolunteerID string  `json:"assigned_volunteer_id,omitempty"`
	AssignedAgentID     string  `json:"assigned_agent_id,omitempty"`
	CreatedAt           string  `json:"created_at"`
	PickupWindowStart   string  `json:"pickup_window_start,omitempty"`
	ExpiryTime          string  `json:"expiry_time"`
}

// CandidateResponse is one ranked matching candidate.
type CandidateResponse struct {
	ActorID    string  `json:"actor_id"`
	Role       string  `json:"role"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
	Score      float64 `json:"score"`
}

func toDonationResponse(d *domain.Donation) DonationResponse {
	resp := DonationResponse{
		ID:                  d.ID,
		DonorID:             d.DonorID,
		FoodDetails:         d.FoodDetails,
		FoodType:            string(d.FoodType),
		QuantityKg:          d.QuantityKg,
		SpecialInstructions: d.SpecialInstructions,
		Lat:                 d.Lat,
		Lng:                 d.Lng,
		Status:              string(d.Status),
		AssignedNGOID:       d.AssignedNGOID,
		AssignedVolunteerID: d.AssignedVolunteerID,
		AssignedAgentID:     d.AssignedAgentID,
		CreatedAt:           d.CreatedAt.Format(time.RFC3339),
		ExpiryTime:          d.ExpiryTime.Format(time.RFC3339),
	}
	if !d.PickupWindowStart.IsZero() {
		resp.PickupWindowStart = d.PickupWindowStart.Format(time.RFC3339)
	}
	return resp
}

// Submit handles POST /v1/donations
func (h *DonationHandler) Submit(c *gin.Context) {
	var req SubmitDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	expiry, err := time.Parse(time.RFC3339, req.ExpiryTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "expiry_time must be RFC 3339"})
		return
	}

	var pickupStart time.Time
	if req.PickupWindowStart != "" {
		pickupStart, err = time.Parse(time.RFC3339, req.PickupWindowStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup_window_start must be RFC 3339"})
			return
		}
	}

	result, err := h.coordinator.Submit(c.Request.Context(), service.SubmitRequest{
		DonorID:             req.DonorID,
		FoodDetails:         req.FoodDetails,
		FoodType:            domain.FoodType(req.FoodType),
		QuantityKg:          req.QuantityKg,
		SpecialInstructions: req.SpecialInstructions,
		Lat:                 req.Lat,
		Lng:                 req.Lng,
		PickupWindowStart:   pickupStart,
		ExpiryTime:          expiry,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"donation":     toDonationResponse(result.Donation),
		"ngo_assigned": result.NGOAssigned,
		"ngo_id":       result.NGOID,
	})
}

// Get handles GET /v1/donations/:id
func (h *DonationHandler) Get(c *gin.Context) {
	donation, err := h.donationRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// GetAll handles GET /v1/donations
func (h *DonationHandler) GetAll(c *gin.Context) {
	donations, err := h.donationRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DonationResponse, 0, len(donations))
	for _, d := range donations {
		response = append(response, toDonationResponse(d))
	}

	respondJSON(c, http.StatusOK, response)
}

// Candidates handles GET /v1/donations/:id/candidates
func (h *DonationHandler) Candidates(c *gin.Context) {
	role := domain.ActorRole(c.Query("role"))

	ranked, err := h.coordinator.MatchOnce(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CandidateResponse, 0, len(ranked))
	for _, r := range ranked {
		response = append(response, CandidateResponse{
			ActorID:    r.Actor.ID,
			Role:       string(r.Actor.Role),
			Name:       r.Actor.Name,
			DistanceKm: r.DistanceKm,
			Score:      r.Score,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// Assign handles POST /v1/donations/:id/assign
func (h *DonationHandler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	donation, err := h.coordinator.Assign(c.Request.Context(), c.Param("id"), req.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// Cancel handles POST /v1/donations/:id/cancel
func (h *DonationHandler) Cancel(c *gin.Context) {
	donation, err := h.coordinator.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// Reject handles POST /v1/donations/:id/reject
func (h *DonationHandler) Reject(c *gin.Context) {
	var req OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	donation, err := h.coordinator.Reject(c.Request.Context(), c.Param("id"), req.DonorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// Pickup handles POST /v1/donations/:id/pickup
func (h *DonationHandler) Pickup(c *gin.Context) {
	donation, err := h.coordinator.Pickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// Complete handles POST /v1/donations/:id/complete
func (h *DonationHandler) Complete(c *gin.Context) {
	donation, err := h.coordinator.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDonationResponse(donation))
}

// Duplicate handles POST /v1/donations/:id/duplicate
func (h *DonationHandler) Duplicate(c *gin.Context) {
	var req OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.coordinator.Duplicate(c.Request.Context(), c.Param("id"), req.DonorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"donation":     toDonationResponse(result.Donation),
		"ngo_assigned": result.NGOAssigned,
		"ngo_id":       result.NGOID,
	})
}
