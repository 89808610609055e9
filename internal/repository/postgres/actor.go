package postgres

import (
	"context"
	"database/sql"
	"errors"

	"foodbridge/internal/domain"
	"foodbridge/internal/repository"
)

// ActorRepository is a PostgreSQL implementation of repository.ActorRepository.
type ActorRepository struct {
	q Querier
}

// NewActorRepository creates a new PostgreSQL actor repository.
func NewActorRepository(db *sql.DB) *ActorRepository {
	return &ActorRepository{q: db}
}

const actorColumns = `id, role, name, phone, lat, lng, available, max_distance_km, max_quantity_kg, available_quantity_kg, vehicle, average_rating, total_interactions, created_at`

// Create adds a new actor.
func (r *ActorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	query := `
		INSERT INTO actors (` + actorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var vehicle sql.NullString
	if actor.Vehicle != "" {
		vehicle = sql.NullString{String: string(actor.Vehicle), Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		actor.ID,
		actor.Role,
		actor.Name,
		actor.Phone,
		actor.Lat,
		actor.Lng,
		actor.Available,
		actor.MaxDistanceKm,
		actor.MaxQuantityKg,
		actor.AvailableQuantityKg,
		vehicle,
		actor.AverageRating,
		actor.TotalInteractions,
		actor.CreatedAt,
	)

	return err
}

// GetByID retrieves an actor by ID.
func (r *ActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors WHERE id = $1`

	actor, err := scanActor(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return actor, nil
}

// GetByRole retrieves all actors with the given role.
func (r *ActorRepository) GetByRole(ctx context.Context, role domain.ActorRole) ([]*domain.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors WHERE role = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActors(rows)
}

// GetAll retrieves all actors.
func (r *ActorRepository) GetAll(ctx context.Context) ([]*domain.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActors(rows)
}

// Update updates an existing actor.
func (r *ActorRepository) Update(ctx context.Context, actor *domain.Actor) error {
	query := `
		UPDATE actors
		SET name = $2, phone = $3, lat = $4, lng = $5, available = $6,
		    max_distance_km = $7, max_quantity_kg = $8, available_quantity_kg = $9,
		    vehicle = $10, average_rating = $11, total_interactions = $12
		WHERE id = $1
	`

	var vehicle sql.NullString
	if actor.Vehicle != "" {
		vehicle = sql.NullString{String: string(actor.Vehicle), Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		actor.ID,
		actor.Name,
		actor.Phone,
		actor.Lat,
		actor.Lng,
		actor.Available,
		actor.MaxDistanceKm,
		actor.MaxQuantityKg,
		actor.AvailableQuantityKg,
		vehicle,
		actor.AverageRating,
		actor.TotalInteractions,
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*domain.Actor, error) {
	var actor domain.Actor
	var vehicle sql.NullString

	err := row.Scan(
		&actor.ID,
		&actor.Role,
		&actor.Name,
		&actor.Phone,
		&actor.Lat,
		&actor.Lng,
		&actor.Available,
		&actor.MaxDistanceKm,
		&actor.MaxQuantityKg,
		&actor.AvailableQuantityKg,
		&vehicle,
		&actor.AverageRating,
		&actor.TotalInteractions,
		&actor.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if vehicle.Valid {
		actor.Vehicle = domain.VehicleType(vehicle.String)
	}

	return &actor, nil
}

func collectActors(rows *sql.Rows) ([]*domain.Actor, error) {
	var actors []*domain.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	return actors, rows.Err()
}

// Ensure ActorRepository implements repository.ActorRepository.
var _ repository.ActorRepository = (*ActorRepository)(nil)
