package service

import (
	"context"
	"time"

	"foodbridge/internal/domain"
	"foodbridge/internal/repository"
)

// Impact conversion factors: meals served per donated kg and CO2-equivalent
// avoided per kg of food waste prevented.
const (
	mealsPerKg = 2.0
	co2KgPerKg = 2.5
)

// ReportService answers read-only queries over historical (terminal)
// donations. It never touches in-flight state.
type ReportService struct {
	donationRepo repository.DonationRepository
}

// NewReportService creates a new ReportService.
func NewReportService(donationRepo repository.DonationRepository) *ReportService {
	return &ReportService{donationRepo: donationRepo}
}

// DonorReport summarizes a donor's completed impact.
type DonorReport struct {
	DonorID          string
	TotalDonations   int
	CompletedCount   int
	ExpiredCount     int
	RejectedCount    int
	TotalDonatedKg   float64
	EstimatedMeals   float64
	EstimatedCO2Kg   float64
	UniqueNGOsHelped int
	GeneratedAt      time.Time
}

// DonorReport builds the impact summary for one donor.
func (s *ReportService) DonorReport(ctx context.Context, donorID string) (*DonorReport, error) {
	if donorID == "" {
		return nil, ErrInvalidDonorID
	}

	donations, err := s.donationRepo.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	report := &DonorReport{
		DonorID:     donorID,
		GeneratedAt: time.Now(),
	}

	ngos := make(map[string]struct{})
	for _, d := range donations {
		report.TotalDonations++

		switch d.Status {
		case domain.DonationStatusCompleted:
			report.CompletedCount++
			report.TotalDonatedKg += d.QuantityKg
			if d.AssignedNGOID != "" {
				ngos[d.AssignedNGOID] = struct{}{}
			}
		case domain.DonationStatusExpired:
			report.ExpiredCount++
		case domain.DonationStatusRejected:
			report.RejectedCount++
		}
	}

	report.EstimatedMeals = report.TotalDonatedKg * mealsPerKg
	report.EstimatedCO2Kg = report.TotalDonatedKg * co2KgPerKg
	report.UniqueNGOsHelped = len(ngos)

	return report, nil
}

// History lists terminal donations, optionally restricted to one terminal
// status. In-flight donations are excluded from the reporting surface.
func (s *ReportService) History(ctx context.Context, status domain.DonationStatus) ([]*domain.Donation, error) {
	if status != "" {
		if !status.Terminal() {
			return nil, ErrInvalidStatus
		}
		return s.donationRepo.ListByStatus(ctx, status)
	}

	all, err := s.donationRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	terminal := make([]*domain.Donation, 0, len(all))
	for _, d := range all {
		if d.Status.Terminal() {
			terminal = append(terminal, d)
		}
	}
	return terminal, nil
}
