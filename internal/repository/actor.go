package repository

import (
	"context"

	"foodbridge/internal/domain"
)

// ActorRepository defines the persistence operations for actors.
type ActorRepository interface {
	// Create adds a new actor.
	Create(ctx context.Context, actor *domain.Actor) error

	// GetByID retrieves an actor by ID.
	GetByID(ctx context.Context, id string) (*domain.Actor, error)

	// GetByRole retrieves all actors with the given role.
	GetByRole(ctx context.Context, role domain.ActorRole) ([]*domain.Actor, error)

	// GetAll retrieves all actors.
	GetAll(ctx context.Context) ([]*domain.Actor, error)

	// Update updates an existing actor, including availability, capacity
	// headroom, and reliability stats.
	Update(ctx context.Context, actor *domain.Actor) error
}
