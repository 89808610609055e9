package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
	"foodbridge/internal/redis"
	"foodbridge/internal/repository"
)

// ActorService handles actor registration, position, and availability. Every
// position or availability change is mirrored into the geo index so the
// matcher sees it on the next pass.
type ActorService struct {
	geoIndex   geo.Index
	cacheStore *redis.CacheStore
	actorRepo  repository.ActorRepository
}

// NewActorService creates a new ActorService.
func NewActorService(geoIndex geo.Index, cacheStore *redis.CacheStore, actorRepo repository.ActorRepository) *ActorService {
	return &ActorService{
		geoIndex:   geoIndex,
		cacheStore: cacheStore,
		actorRepo:  actorRepo,
	}
}

// RegisterActorRequest contains the parameters for registering an actor.
type RegisterActorRequest struct {
	Role          domain.ActorRole
	Name          string
	Phone         string
	Lat           float64
	Lng           float64
	MaxDistanceKm float64
	MaxQuantityKg float64            // NGOs only
	Vehicle       domain.VehicleType // delivery agents only
}

// Default per-role distance policies, matching the onboarding defaults of
// the donation platform.
const (
	defaultNGODistanceKm       = 50.0
	defaultVolunteerDistanceKm = 10.0
	defaultDeliveryDistanceKm  = 25.0
	defaultNGOQuantityKg       = 100.0
)

// Register creates a new actor and indexes its position.
func (s *ActorService) Register(ctx context.Context, req RegisterActorRequest) (*domain.Actor, error) {
	if !domain.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if req.Name == "" {
		return nil, ErrInvalidActorID
	}
	if !geo.ValidLatitude(req.Lat) || !geo.ValidLongitude(req.Lng) {
		return nil, ErrInvalidCoordinates
	}
	if req.MaxDistanceKm < 0 || req.MaxQuantityKg < 0 {
		return nil, ErrInvalidQuantity
	}

	actor := &domain.Actor{
		ID:            uuid.New().String(),
		Role:          req.Role,
		Name:          req.Name,
		Phone:         req.Phone,
		Lat:           req.Lat,
		Lng:           req.Lng,
		Available:     true,
		MaxDistanceKm: req.MaxDistanceKm,
		Vehicle:       req.Vehicle,
		CreatedAt:     time.Now(),
	}

	if actor.MaxDistanceKm == 0 {
		switch req.Role {
		case domain.RoleNGO:
			actor.MaxDistanceKm = defaultNGODistanceKm
		case domain.RoleVolunteer:
			actor.MaxDistanceKm = defaultVolunteerDistanceKm
		case domain.RoleDeliveryAgent:
			actor.MaxDistanceKm = defaultDeliveryDistanceKm
		}
	}

	if req.Role == domain.RoleNGO {
		actor.MaxQuantityKg = req.MaxQuantityKg
		if actor.MaxQuantityKg == 0 {
			actor.MaxQuantityKg = defaultNGOQuantityKg
		}
		actor.AvailableQuantityKg = actor.MaxQuantityKg
	}

	if err := s.actorRepo.Create(ctx, actor); err != nil {
		return nil, err
	}

	if err := s.geoIndex.Upsert(ctx, actor.Role, actor.ID, actor.Lat, actor.Lng); err != nil {
		return nil, err
	}

	return actor, nil
}

// UpdateLocationRequest contains the parameters for updating actor position.
type UpdateLocationRequest struct {
	ActorID string
	Lat     float64
	Lng     float64
}

// UpdateLocation moves an actor in both the repository and the geo index.
func (s *ActorService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.ActorID == "" {
		return ErrInvalidActorID
	}
	if !geo.ValidLatitude(req.Lat) || !geo.ValidLongitude(req.Lng) {
		return ErrInvalidCoordinates
	}

	actor, err := s.actorRepo.GetByID(ctx, req.ActorID)
	if err != nil {
		return err
	}

	actor.Lat = req.Lat
	actor.Lng = req.Lng

	if err := s.actorRepo.Update(ctx, actor); err != nil {
		return err
	}

	if err := s.geoIndex.Upsert(ctx, actor.Role, actor.ID, req.Lat, req.Lng); err != nil {
		return err
	}

	s.invalidate(ctx, actor.ID)
	return nil
}

// SetAvailability toggles whether the actor is matched. An actor going
// unavailable stays in the geo index; eligibility filters it out.
func (s *ActorService) SetAvailability(ctx context.Context, actorID string, available bool) error {
	if actorID == "" {
		return ErrInvalidActorID
	}

	actor, err := s.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	actor.Available = available
	if err := s.actorRepo.Update(ctx, actor); err != nil {
		return err
	}

	s.invalidate(ctx, actorID)
	return nil
}

// AddRating folds a rating into the actor's reliability stats using the
// incremental average.
func (s *ActorService) AddRating(ctx context.Context, actorID string, rating float64) (*domain.Actor, error) {
	if actorID == "" {
		return nil, ErrInvalidActorID
	}
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidRating
	}

	actor, err := s.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	actor.RecordInteraction(rating)
	if err := s.actorRepo.Update(ctx, actor); err != nil {
		return nil, err
	}

	s.invalidate(ctx, actorID)
	return actor, nil
}

// Nearby returns actors of a role around a point with distances attached.
func (s *ActorService) Nearby(ctx context.Context, role domain.ActorRole, lat, lng, radiusKm float64) ([]geo.Candidate, error) {
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	return s.geoIndex.WithinRadius(ctx, role, geo.Point{Lat: lat, Lng: lng}, radiusKm)
}

// GetAll lists every registered actor.
func (s *ActorService) GetAll(ctx context.Context) ([]*domain.Actor, error) {
	return s.actorRepo.GetAll(ctx)
}

func (s *ActorService) invalidate(ctx context.Context, actorID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateActor(ctx, actorID)
}
