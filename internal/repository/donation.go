package repository

import (
	"context"

	"foodbridge/internal/domain"
)

// DonationRepository defines the persistence operations for donations.
type DonationRepository interface {
	// Create persists a new donation.
	Create(ctx context.Context, donation *domain.Donation) error

	// GetByID retrieves a donation by ID.
	GetByID(ctx context.Context, id string) (*domain.Donation, error)

	// GetAll retrieves all donations.
	GetAll(ctx context.Context) ([]*domain.Donation, error)

	// ListActive retrieves all donations in a non-terminal status, for the
	// expiry sweep.
	ListActive(ctx context.Context) ([]*domain.Donation, error)

	// ListByStatus retrieves donations in the given status.
	ListByStatus(ctx context.Context, status domain.DonationStatus) ([]*domain.Donation, error)

	// ListByDonor retrieves all donations posted by a donor.
	ListByDonor(ctx context.Context, donorID string) ([]*domain.Donation, error)

	// Update updates an existing donation.
	Update(ctx context.Context, donation *domain.Donation) error
}
