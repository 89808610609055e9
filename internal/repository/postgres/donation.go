package postgres

import (
	"context"
	"database/sql"
	"errors"

	"foodbridge/internal/domain"
	"foodbridge/internal/repository"
)

// DonationRepository is a PostgreSQL implementation of repository.DonationRepository.
type DonationRepository struct {
	q Querier
}

// NewDonationRepository creates a new PostgreSQL donation repository.
func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{q: db}
}

const donationColumns = `id, donor_id, food_details, food_type, quantity_kg, special_instructions, lat, lng, status, assigned_ngo_id, assigned_volunteer_id, assigned_agent_id, created_at, pickup_window_start, expiry_time, updated_at`

// Create persists a new donation.
func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		donation.ID,
		donation.DonorID,
		donation.FoodDetails,
		donation.FoodType,
		donation.QuantityKg,
		nullString(donation.SpecialInstructions),
		donation.Lat,
		donation.Lng,
		donation.Status,
		nullString(donation.AssignedNGOID),
		nullString(donation.AssignedVolunteerID),
		nullString(donation.AssignedAgentID),
		donation.CreatedAt,
		donation.PickupWindowStart,
		donation.ExpiryTime,
		donation.UpdatedAt,
	)

	return err
}

// GetByID retrieves a donation by ID.
func (r *DonationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`

	donation, err := scanDonation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return donation, nil
}

// GetAll retrieves all donations.
func (r *DonationRepository) GetAll(ctx context.Context) ([]*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDonations(rows)
}

// ListActive retrieves all donations in a non-terminal status.
func (r *DonationRepository) ListActive(ctx context.Context) ([]*domain.Donation, error) {
	query := `
		SELECT ` + donationColumns + ` FROM donations
		WHERE status IN ($1, $2, $3)
		ORDER BY expiry_time
	`

	rows, err := r.q.QueryContext(ctx, query,
		domain.DonationStatusPending,
		domain.DonationStatusAccepted,
		domain.DonationStatusPickedUp,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDonations(rows)
}

// ListByStatus retrieves donations in the given status.
func (r *DonationRepository) ListByStatus(ctx context.Context, status domain.DonationStatus) ([]*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE status = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDonations(rows)
}

// ListByDonor retrieves all donations posted by a donor.
func (r *DonationRepository) ListByDonor(ctx context.Context, donorID string) ([]*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_id = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDonations(rows)
}

// Update updates an existing donation.
func (r *DonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	query := `
		UPDATE donations
		SET status = $2, assigned_ngo_id = $3, assigned_volunteer_id = $4,
		    assigned_agent_id = $5, pickup_window_start = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		donation.ID,
		donation.Status,
		nullString(donation.AssignedNGOID),
		nullString(donation.AssignedVolunteerID),
		nullString(donation.AssignedAgentID),
		donation.PickupWindowStart,
		donation.UpdatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func scanDonation(row rowScanner) (*domain.Donation, error) {
	var donation domain.Donation
	var instructions, ngoID, volunteerID, agentID sql.NullString

	err := row.Scan(
		&donation.ID,
		&donation.DonorID,
		&donation.FoodDetails,
		&donation.FoodType,
		&donation.QuantityKg,
		&instructions,
		&donation.Lat,
		&donation.Lng,
		&donation.Status,
		&ngoID,
		&volunteerID,
		&agentID,
		&donation.CreatedAt,
		&donation.PickupWindowStart,
		&donation.ExpiryTime,
		&donation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	donation.SpecialInstructions = instructions.String
	donation.AssignedNGOID = ngoID.String
	donation.AssignedVolunteerID = volunteerID.String
	donation.AssignedAgentID = agentID.String

	return &donation, nil
}

func collectDonations(rows *sql.Rows) ([]*domain.Donation, error) {
	var donations []*domain.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, donation)
	}
	return donations, rows.Err()
}

// Ensure DonationRepository implements repository.DonationRepository.
var _ repository.DonationRepository = (*DonationRepository)(nil)
