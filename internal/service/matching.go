package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
	"foodbridge/internal/redis"
	"foodbridge/internal/repository"
)

const (
	defaultSearchRadiusKm = 25.0
	actorLockTTL          = 10 * time.Second
	donationLockTTL       = 30 * time.Second // Lock donation for the duration of a transition
)

// MatchingCoordinator orchestrates the end-to-end donation flow: submit,
// geo query, eligibility filter, ranking, assignment, and time-driven expiry.
// It is the engine's external-facing entry point.
type MatchingCoordinator struct {
	geoIndex     geo.Index
	lockStore    redis.LockStoreInterface
	cacheStore   *redis.CacheStore
	actorRepo    repository.ActorRepository
	donationRepo repository.DonationRepository

	lifecycle *Lifecycle
	filter    *EligibilityFilter
	ranker    *Ranker
	notifier  *NotificationService

	searchRadiusKm float64
	autoAssign     bool
}

// MatchingOptions tunes the coordinator.
type MatchingOptions struct {
	SearchRadiusKm float64 // 0 uses the default
	AutoAssign     bool    // assign the top-ranked NGO on submit
}

// NewMatchingCoordinator creates a new MatchingCoordinator.
func NewMatchingCoordinator(
	geoIndex geo.Index,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	actorRepo repository.ActorRepository,
	donationRepo repository.DonationRepository,
	ranker *Ranker,
	notifier *NotificationService,
	opts MatchingOptions,
) *MatchingCoordinator {
	radius := opts.SearchRadiusKm
	if radius <= 0 {
		radius = defaultSearchRadiusKm
	}

	return &MatchingCoordinator{
		geoIndex:       geoIndex,
		lockStore:      lockStore,
		cacheStore:     cacheStore,
		actorRepo:      actorRepo,
		donationRepo:   donationRepo,
		lifecycle:      NewLifecycle(),
		filter:         NewEligibilityFilter(),
		ranker:         ranker,
		notifier:       notifier,
		searchRadiusKm: radius,
		autoAssign:     opts.AutoAssign,
	}
}

// SubmitRequest contains the parameters for posting a donation.
type SubmitRequest struct {
	DonorID             string
	FoodDetails         string
	FoodType            domain.FoodType
	QuantityKg          float64
	SpecialInstructions string
	Lat                 float64
	Lng                 float64
	PickupWindowStart   time.Time
	ExpiryTime          time.Time
}

// SubmitResponse contains the result of posting a donation.
type SubmitResponse struct {
	Donation     *domain.Donation
	NGOAssigned  bool
	NGOID        string
}

// Submit validates the donation, stores it at PENDING, and triggers an
// immediate matching pass.
func (s *MatchingCoordinator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	now := time.Now()

	if err := validateSubmit(req, now); err != nil {
		return nil, err
	}

	foodType := req.FoodType
	if foodType == "" {
		foodType = domain.FoodOther
	}

	donation := &domain.Donation{
		ID:                  uuid.New().String(),
		DonorID:             req.DonorID,
		FoodDetails:         req.FoodDetails,
		FoodType:            foodType,
		QuantityKg:          req.QuantityKg,
		SpecialInstructions: req.SpecialInstructions,
		Lat:                 req.Lat,
		Lng:                 req.Lng,
		Status:              domain.DonationStatusPending,
		CreatedAt:           now,
		PickupWindowStart:   req.PickupWindowStart,
		ExpiryTime:          req.ExpiryTime,
		UpdatedAt:           now,
	}

	if err := s.donationRepo.Create(ctx, donation); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyDonationCreated(ctx, donation)
	}

	resp := &SubmitResponse{Donation: donation}

	if s.autoAssign {
		ngoID, err := s.assignBest(ctx, donation.ID, domain.RoleNGO)
		if err == nil {
			resp.NGOAssigned = true
			resp.NGOID = ngoID
			// Reflect the assignment in the returned donation.
			if updated, err := s.donationRepo.GetByID(ctx, donation.ID); err == nil {
				resp.Donation = updated
			}
		} else if !errors.Is(err, ErrNoCandidateAvailable) && !errors.Is(err, ErrMatchingInProgress) {
			log.Printf("auto-assign failed for donation %s: %v", donation.ID, err)
		}
	}

	return resp, nil
}

// MatchOnce runs geo query, eligibility filter, and ranking for the donation
// and returns the ranked candidate list without mutating state. The caller
// must not assume the set is still valid at assignment time.
func (s *MatchingCoordinator) MatchOnce(ctx context.Context, donationID string, role domain.ActorRole) ([]RankedCandidate, error) {
	if donationID == "" {
		return nil, ErrInvalidDonationID
	}
	if role == "" {
		role = domain.RoleNGO
	}
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}

	if donation.Status.Terminal() {
		return nil, ErrDonationTerminal
	}
	// Read path stays pure: an overdue donation fails here and is persisted
	// as EXPIRED by the next mutating touch or sweep.
	if donation.ExpiredAt(time.Now()) {
		return nil, ErrDonationExpired
	}

	candidates, err := s.geoIndex.WithinRadius(ctx, role, geo.Point{Lat: donation.Lat, Lng: donation.Lng}, s.searchRadiusKm)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	actors, err := s.loadActors(ctx, candidates)
	if err != nil {
		return nil, err
	}

	eligible := s.filter.Filter(donation, candidates, actors, time.Now())
	return s.ranker.Rank(ctx, donation, eligible), nil
}

// Assign validates the actor against the eligibility policy at assignment
// time, transitions the donation, and reserves the actor's capacity.
// Assigning the same (donation, actor) pair twice is a no-op.
func (s *MatchingCoordinator) Assign(ctx context.Context, donationID, actorID string) (*domain.Donation, error) {
	if donationID == "" {
		return nil, ErrInvalidDonationID
	}
	if actorID == "" {
		return nil, ErrInvalidActorID
	}

	locked, err := s.lockStore.AcquireDonationLock(ctx, donationID, donationLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrMatchingInProgress
	}
	defer func() { _ = s.lockStore.ReleaseDonationLock(ctx, donationID) }()

	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}

	// Re-verify the actor from the source of truth; positions and
	// availability may have changed since MatchOnce.
	actor, err := s.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	// Expiry outranks the idempotent-retry fast path: a retry on an overdue
	// donation must persist EXPIRED, not replay the earlier success.
	now := time.Now()
	if s.lifecycle.ExpireIfDue(donation, now) {
		s.finishExpiry(ctx, donation)
		return nil, transitionErr("assign", donation.Status)
	}

	// Idempotent retry: already assigned to this exact actor.
	if donation.AssignedID(actor.Role) == actor.ID && !donation.Status.Terminal() {
		return donation, nil
	}

	actorLocked, err := s.lockStore.AcquireActorLock(ctx, actorID, actorLockTTL)
	if err != nil {
		return nil, err
	}
	if !actorLocked {
		return nil, ErrMatchingInProgress
	}
	defer func() { _ = s.lockStore.ReleaseActorLock(ctx, actorID) }()

	distance := geo.HaversineKm(
		geo.Point{Lat: donation.Lat, Lng: donation.Lng},
		geo.Point{Lat: actor.Lat, Lng: actor.Lng},
	)
	if !s.filter.Eligible(donation, actor, distance, now) {
		return nil, ErrIneligible
	}

	if err := s.lifecycle.Assign(donation, actor, now); err != nil {
		return nil, err
	}

	// Reserve capacity.
	switch actor.Role {
	case domain.RoleNGO:
		actor.AvailableQuantityKg -= donation.QuantityKg
	default:
		actor.Available = false
	}

	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return nil, err
	}
	if err := s.actorRepo.Update(ctx, actor); err != nil {
		return nil, err
	}
	s.invalidateActor(ctx, actorID)

	if s.notifier != nil {
		s.notifier.NotifyDonationAssigned(ctx, donation, actor)
	}

	return donation, nil
}

// Cancel releases all assigned actors and returns the donation to PENDING,
// where it re-enters matching.
func (s *MatchingCoordinator) Cancel(ctx context.Context, donationID string) (*domain.Donation, error) {
	donation, released, err := s.transition(ctx, donationID, func(d *domain.Donation, now time.Time) (map[domain.ActorRole]string, error) {
		held := ReleasedActors(d)
		if err := s.lifecycle.Cancel(d, now); err != nil {
			return nil, err
		}
		return held, nil
	})
	if err != nil {
		return nil, err
	}

	s.releaseActors(ctx, donation, released)

	if s.notifier != nil {
		ids := make([]string, 0, len(released))
		for _, id := range released {
			ids = append(ids, id)
		}
		s.notifier.NotifyDonationCancelled(ctx, donation, ids)
	}

	// Best effort re-matching pass; the donation stays PENDING if nothing
	// eligible exists.
	if s.autoAssign {
		if _, err := s.assignBest(ctx, donation.ID, domain.RoleNGO); err != nil &&
			!errors.Is(err, ErrNoCandidateAvailable) && !errors.Is(err, ErrMatchingInProgress) {
			log.Printf("re-match failed for donation %s: %v", donation.ID, err)
		}
		if updated, err := s.donationRepo.GetByID(ctx, donation.ID); err == nil {
			donation = updated
		}
	}

	return donation, nil
}

// Reject moves a PENDING donation to REJECTED. When requesterID is set it
// must match the donation's owner.
func (s *MatchingCoordinator) Reject(ctx context.Context, donationID, requesterID string) (*domain.Donation, error) {
	donation, _, err := s.transition(ctx, donationID, func(d *domain.Donation, now time.Time) (map[domain.ActorRole]string, error) {
		if requesterID != "" && requesterID != d.DonorID {
			return nil, ErrNotDonationOwner
		}
		return nil, s.lifecycle.Reject(d, now)
	})
	return donation, err
}

// Pickup moves an ACCEPTED donation to PICKED_UP.
func (s *MatchingCoordinator) Pickup(ctx context.Context, donationID string) (*domain.Donation, error) {
	donation, _, err := s.transition(ctx, donationID, func(d *domain.Donation, now time.Time) (map[domain.ActorRole]string, error) {
		return nil, s.lifecycle.Pickup(d, now)
	})
	return donation, err
}

// Complete moves a PICKED_UP donation to COMPLETED, commits the NGO's
// reserved capacity, and returns volunteers and agents to the pool with
// their reliability stats bumped.
func (s *MatchingCoordinator) Complete(ctx context.Context, donationID string) (*domain.Donation, error) {
	donation, _, err := s.transition(ctx, donationID, func(d *domain.Donation, now time.Time) (map[domain.ActorRole]string, error) {
		return nil, s.lifecycle.Complete(d, now)
	})
	if err != nil {
		return nil, err
	}

	s.commitActors(ctx, donation)

	if s.notifier != nil {
		s.notifier.NotifyDonationCompleted(ctx, donation)
	}

	return donation, nil
}

// Duplicate creates a fresh PENDING donation copying the original's food
// details and quantity, with a new id and an expiry window of the same
// length starting now. Only the owner may duplicate.
func (s *MatchingCoordinator) Duplicate(ctx context.Context, donationID, donorID string) (*SubmitResponse, error) {
	if donationID == "" {
		return nil, ErrInvalidDonationID
	}
	if donorID == "" {
		return nil, ErrInvalidDonorID
	}

	original, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if original.DonorID != donorID {
		return nil, ErrNotDonationOwner
	}

	now := time.Now()
	window := original.ExpiryTime.Sub(original.CreatedAt)

	return s.Submit(ctx, SubmitRequest{
		DonorID:             original.DonorID,
		FoodDetails:         original.FoodDetails,
		FoodType:            original.FoodType,
		QuantityKg:          original.QuantityKg,
		SpecialInstructions: original.SpecialInstructions,
		Lat:                 original.Lat,
		Lng:                 original.Lng,
		PickupWindowStart:   now,
		ExpiryTime:          now.Add(window),
	})
}

// SweepExpired scans all non-terminal donations and expires those past their
// deadline, releasing any reserved capacity. Idempotent and safe to run
// concurrently with in-flight transitions: each donation is expired under
// its own lock, and held locks are skipped until the next sweep.
func (s *MatchingCoordinator) SweepExpired(ctx context.Context) (int, error) {
	active, err := s.donationRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	expired := 0

	for _, donation := range active {
		if !donation.ExpiredAt(now) {
			continue
		}

		locked, err := s.lockStore.AcquireDonationLock(ctx, donation.ID, donationLockTTL)
		if err != nil {
			return expired, err
		}
		if !locked {
			continue
		}

		// Re-load under the lock; a concurrent transition may have won.
		fresh, err := s.donationRepo.GetByID(ctx, donation.ID)
		if err == nil && s.lifecycle.ExpireIfDue(fresh, now) {
			s.finishExpiry(ctx, fresh)
			expired++
		}

		_ = s.lockStore.ReleaseDonationLock(ctx, donation.ID)
	}

	return expired, nil
}

// assignBest runs a matching pass and assigns the top-ranked candidate.
func (s *MatchingCoordinator) assignBest(ctx context.Context, donationID string, role domain.ActorRole) (string, error) {
	ranked, err := s.MatchOnce(ctx, donationID, role)
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return "", ErrNoCandidateAvailable
	}

	// Try candidates in proposal order; a racing assignment for one actor
	// should not fail the whole pass.
	for _, candidate := range ranked {
		if _, err := s.Assign(ctx, donationID, candidate.Actor.ID); err != nil {
			if errors.Is(err, ErrIneligible) || errors.Is(err, ErrMatchingInProgress) {
				continue
			}
			return "", err
		}
		return candidate.Actor.ID, nil
	}

	return "", ErrNoCandidateAvailable
}

// transition runs fn on the donation inside its exclusion scope, applying
// lazy expiry first, then persists the result.
func (s *MatchingCoordinator) transition(
	ctx context.Context,
	donationID string,
	fn func(d *domain.Donation, now time.Time) (map[domain.ActorRole]string, error),
) (*domain.Donation, map[domain.ActorRole]string, error) {
	if donationID == "" {
		return nil, nil, ErrInvalidDonationID
	}

	locked, err := s.lockStore.AcquireDonationLock(ctx, donationID, donationLockTTL)
	if err != nil {
		return nil, nil, err
	}
	if !locked {
		return nil, nil, ErrMatchingInProgress
	}
	defer func() { _ = s.lockStore.ReleaseDonationLock(ctx, donationID) }()

	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	released, err := fn(donation, now)
	if err != nil {
		// Lazy expiry may have fired inside the lifecycle call; persist it
		// so the terminal status sticks.
		if donation.Status == domain.DonationStatusExpired {
			s.finishExpiry(ctx, donation)
		}
		return nil, nil, err
	}

	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return nil, nil, err
	}

	return donation, released, nil
}

// finishExpiry persists an in-memory EXPIRED transition, releases reserved
// capacity, and emits the event. Called with the donation lock held.
func (s *MatchingCoordinator) finishExpiry(ctx context.Context, donation *domain.Donation) {
	released := ReleasedActors(donation)
	donation.AssignedNGOID = ""
	donation.AssignedVolunteerID = ""
	donation.AssignedAgentID = ""

	if err := s.donationRepo.Update(ctx, donation); err != nil {
		log.Printf("failed to persist expiry for donation %s: %v", donation.ID, err)
		return
	}

	s.releaseActors(ctx, donation, released)

	if s.notifier != nil {
		s.notifier.NotifyDonationExpired(ctx, donation)
	}
}

// releaseActors returns reserved capacity to each released actor.
func (s *MatchingCoordinator) releaseActors(ctx context.Context, donation *domain.Donation, released map[domain.ActorRole]string) {
	for role, actorID := range released {
		s.mutateActor(ctx, "release", actorID, func(actor *domain.Actor) {
			switch role {
			case domain.RoleNGO:
				actor.AvailableQuantityKg += donation.QuantityKg
				if actor.AvailableQuantityKg > actor.MaxQuantityKg {
					actor.AvailableQuantityKg = actor.MaxQuantityKg
				}
			default:
				actor.Available = true
			}
		})
	}
}

// commitActors finalizes capacity on completion: the NGO's reservation is
// kept, carriers return to the pool, and everyone's interaction count grows.
func (s *MatchingCoordinator) commitActors(ctx context.Context, donation *domain.Donation) {
	for role, actorID := range ReleasedActors(donation) {
		s.mutateActor(ctx, "commit", actorID, func(actor *domain.Actor) {
			if role != domain.RoleNGO {
				actor.Available = true
			}
			actor.TotalInteractions++
		})
	}
}

// mutateActor runs a read-modify-write on the actor's capacity fields inside
// the actor's exclusion scope, so a concurrent assignment on another donation
// cannot interleave. A held lock skips the mutation; the reconciling sweep
// picks the donation up again later.
func (s *MatchingCoordinator) mutateActor(ctx context.Context, op, actorID string, fn func(actor *domain.Actor)) {
	locked, err := s.lockStore.AcquireActorLock(ctx, actorID, actorLockTTL)
	if err != nil {
		log.Printf("%s: actor %s lock error: %v", op, actorID, err)
		return
	}
	if !locked {
		log.Printf("%s: actor %s is locked by another transition, skipping", op, actorID)
		return
	}
	defer func() { _ = s.lockStore.ReleaseActorLock(ctx, actorID) }()

	actor, err := s.actorRepo.GetByID(ctx, actorID)
	if err != nil {
		log.Printf("%s: actor %s not found: %v", op, actorID, err)
		return
	}

	fn(actor)

	if err := s.actorRepo.Update(ctx, actor); err != nil {
		log.Printf("%s: failed to update actor %s: %v", op, actorID, err)
		return
	}
	s.invalidateActor(ctx, actorID)
}

// loadActors resolves geo candidates to actor records, cache first.
func (s *MatchingCoordinator) loadActors(ctx context.Context, candidates []geo.Candidate) (map[string]*domain.Actor, error) {
	ids := make([]string, len(candidates))
	coords := make(map[string]geo.Candidate, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ActorID
		coords[c.ActorID] = c
	}

	actors := make(map[string]*domain.Actor, len(candidates))
	missing := ids

	if s.cacheStore != nil {
		cached, misses, err := s.cacheStore.GetActorsBatch(ctx, ids)
		if err == nil {
			for id, c := range cached {
				actors[id] = s.cachedToActor(c, coords[id])
			}
			missing = misses
		}
	}

	for _, id := range missing {
		actor, err := s.actorRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Geo index can briefly lead persistence; skip.
				continue
			}
			return nil, err
		}
		actors[id] = actor
		s.cacheActorAsync(actor)
	}

	return actors, nil
}

// cachedToActor rebuilds a domain actor from its cached policy fields plus
// the geo candidate's coordinates.
func (s *MatchingCoordinator) cachedToActor(c *redis.CachedActor, candidate geo.Candidate) *domain.Actor {
	return &domain.Actor{
		ID:                  c.ID,
		Role:                domain.ActorRole(c.Role),
		Name:                c.Name,
		Lat:                 candidate.Lat,
		Lng:                 candidate.Lng,
		Available:           c.Available,
		MaxDistanceKm:       c.MaxDistanceKm,
		MaxQuantityKg:       c.MaxQuantityKg,
		AvailableQuantityKg: c.AvailableQuantityKg,
		AverageRating:       c.AverageRating,
		TotalInteractions:   c.TotalInteractions,
	}
}

// cacheActorAsync caches an actor record, fire and forget.
func (s *MatchingCoordinator) cacheActorAsync(actor *domain.Actor) {
	if s.cacheStore == nil {
		return
	}
	cached := &redis.CachedActor{
		ID:                  actor.ID,
		Role:                string(actor.Role),
		Name:                actor.Name,
		Available:           actor.Available,
		MaxDistanceKm:       actor.MaxDistanceKm,
		MaxQuantityKg:       actor.MaxQuantityKg,
		AvailableQuantityKg: actor.AvailableQuantityKg,
		AverageRating:       actor.AverageRating,
		TotalInteractions:   actor.TotalInteractions,
	}
	go func() {
		_ = s.cacheStore.SetActor(context.Background(), cached)
	}()
}

func (s *MatchingCoordinator) invalidateActor(ctx context.Context, actorID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateActor(ctx, actorID)
}

func validateSubmit(req SubmitRequest, now time.Time) error {
	if req.DonorID == "" {
		return ErrInvalidDonorID
	}
	if req.FoodDetails == "" {
		return ErrInvalidFoodDetails
	}
	if req.QuantityKg <= 0 {
		return ErrInvalidQuantity
	}
	if !geo.ValidLatitude(req.Lat) || !geo.ValidLongitude(req.Lng) {
		return ErrInvalidCoordinates
	}
	if !req.ExpiryTime.After(now) {
		return ErrInvalidExpiry
	}
	return nil
}
