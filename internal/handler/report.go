package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/domain"
	"foodbridge/internal/service"
)

// ReportHandler handles HTTP requests for reporting and prediction.
type ReportHandler struct {
	reportService *service.ReportService
	predictor     service.SurplusPredictor
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, predictor service.SurplusPredictor) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		predictor:     predictor,
	}
}

// DonorReportResponse is the HTTP representation of a donor impact report.
type DonorReportResponse struct {
	DonorID          string  `json:"donor_id"`
	TotalDonations   int     `json:"total_donations"`
	CompletedCount   int     `json:"completed_count"`
	ExpiredCount     int     `json:"expired_count"`
	RejectedCount    int     `json:"rejected_count"`
	TotalDonatedKg   float64 `json:"total_donated_kg"`
	EstimatedMeals   float64 `json:"estimated_meals"`
	EstimatedCO2Kg   float64 `json:"estimated_co2_kg"`
	UniqueNGOsHelped int     `json:"unique_ngos_helped"`
	GeneratedAt      string  `json:"generated_at"`
}

// DonorReport handles GET /v1/reports/donors/:id
func (h *ReportHandler) DonorReport(c *gin.Context) {
	report, err := h.reportService.DonorReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DonorReportResponse{
		DonorID:          report.DonorID,
		TotalDonations:   report.TotalDonations,
		CompletedCount:   report.CompletedCount,
		ExpiredCount:     report.ExpiredCount,
		RejectedCount:    report.RejectedCount,
		TotalDonatedKg:   report.TotalDonatedKg,
		EstimatedMeals:   report.EstimatedMeals,
		EstimatedCO2Kg:   report.EstimatedCO2Kg,
		UniqueNGOsHelped: report.UniqueNGOsHelped,
		GeneratedAt:      report.GeneratedAt.UTC().Format(time.RFC3339),
	})
}

// History handles GET /v1/reports/history
func (h *ReportHandler) History(c *gin.Context) {
	donations, err := h.reportService.History(c.Request.Context(), domain.DonationStatus(c.Query("status")))
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

// Predict handles GET /v1/reports/predict
func (h *ReportHandler) Predict(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng are required"})
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"predicted_quantity_kg": result.PredictedQuantityKg,
		"confidence":            result.Confidence,
	})
}
