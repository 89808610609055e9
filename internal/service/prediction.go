package service

import (
	"context"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
	"foodbridge/internal/repository"
)

// PredictionResult is the opaque output of a surplus predictor.
type PredictionResult struct {
	PredictedQuantityKg float64
	Confidence          float64
}

// SurplusPredictor estimates upcoming surplus around a location. The engine
// treats it as an opaque provider; implementations may call an external
// model service.
type SurplusPredictor interface {
	Predict(ctx context.Context, lat, lng float64) (PredictionResult, error)
}

// PredictionConfig tunes the heuristic predictor.
type PredictionConfig struct {
	RadiusKm      float64 // area to sample
	BaseQuantity  float64 // floor estimate in kg
	PerDonationKg float64 // contribution of each recent pending donation
}

// DefaultPredictionConfig returns the default heuristic configuration.
func DefaultPredictionConfig() PredictionConfig {
	return PredictionConfig{
		RadiusKm:      10.0,
		BaseQuantity:  5.0,
		PerDonationKg: 2.5,
	}
}

// HeuristicPredictor estimates surplus from the live supply/demand picture:
// pending donations near the point push the estimate up, accepting NGOs pull
// confidence up. It stands in for the external model when none is wired.
type HeuristicPredictor struct {
	geoIndex     geo.Index
	donationRepo repository.DonationRepository
	config       PredictionConfig
}

// NewHeuristicPredictor creates a HeuristicPredictor with default config.
func NewHeuristicPredictor(geoIndex geo.Index, donationRepo repository.DonationRepository) *HeuristicPredictor {
	return &HeuristicPredictor{
		geoIndex:     geoIndex,
		donationRepo: donationRepo,
		config:       DefaultPredictionConfig(),
	}
}

// Predict estimates surplus quantity and a confidence score for the area.
func (p *HeuristicPredictor) Predict(ctx context.Context, lat, lng float64) (PredictionResult, error) {
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return PredictionResult{}, ErrInvalidCoordinates
	}

	center := geo.Point{Lat: lat, Lng: lng}

	demandKg, pendingCount := p.pendingQuantityInArea(ctx, center)
	supply := p.countNGOsInArea(ctx, center)

	estimate := p.config.BaseQuantity +
		demandKg*0.5 +
		float64(pendingCount)*p.config.PerDonationKg

	// More local signal means a tighter estimate. Capped below certainty.
	confidence := 0.5
	if pendingCount > 0 {
		confidence += 0.1 * float64(min(pendingCount, 3))
	}
	if supply > 0 {
		confidence += 0.1
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	return PredictionResult{
		PredictedQuantityKg: estimate,
		Confidence:          confidence,
	}, nil
}

// pendingQuantityInArea sums pending donation quantity within the radius.
func (p *HeuristicPredictor) pendingQuantityInArea(ctx context.Context, center geo.Point) (float64, int) {
	pending, err := p.donationRepo.ListByStatus(ctx, domain.DonationStatusPending)
	if err != nil {
		return 0, 0
	}

	var totalKg float64
	count := 0
	for _, d := range pending {
		distance := geo.HaversineKm(center, geo.Point{Lat: d.Lat, Lng: d.Lng})
		if distance <= p.config.RadiusKm {
			totalKg += d.QuantityKg
			count++
		}
	}
	return totalKg, count
}

// countNGOsInArea returns the number of indexed NGOs within the radius.
func (p *HeuristicPredictor) countNGOsInArea(ctx context.Context, center geo.Point) int {
	ngos, err := p.geoIndex.WithinRadius(ctx, domain.RoleNGO, center, p.config.RadiusKm)
	if err != nil {
		return 0
	}
	return len(ngos)
}

var _ SurplusPredictor = (*HeuristicPredictor)(nil)
