package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
	"foodbridge/internal/service"
)

// engine bundles a coordinator with its fakes for assertions.
type engine struct {
	coordinator  *service.MatchingCoordinator
	actorRepo    *MockActorRepository
	donationRepo *MockDonationRepository
	lockStore    *MockLockStore
	geoIndex     *geo.MemoryIndex
}

func newEngine(t *testing.T, opts service.MatchingOptions) *engine {
	t.Helper()

	actorRepo := NewMockActorRepository()
	donationRepo := NewMockDonationRepository()
	lockStore := NewMockLockStore()
	geoIndex := geo.NewMemoryIndex()

	ranker := service.NewRanker(service.DefaultRankWeights(), nil, 0)

	coordinator := service.NewMatchingCoordinator(
		geoIndex,
		lockStore,
		nil, // no cache in tests; the repo is the source of truth
		actorRepo,
		donationRepo,
		ranker,
		service.NewNotificationService(),
		opts,
	)

	return &engine{
		coordinator:  coordinator,
		actorRepo:    actorRepo,
		donationRepo: donationRepo,
		lockStore:    lockStore,
		geoIndex:     geoIndex,
	}
}

// addNGO registers an NGO in both the repository and the geo index.
func (e *engine) addNGO(t *testing.T, id string, lat, lng, maxDistanceKm, availableKg float64, rating float64, interactions int) *domain.Actor {
	t.Helper()

	actor := &domain.Actor{
		ID:                  id,
		Role:                domain.RoleNGO,
		Name:                id,
		Lat:                 lat,
		Lng:                 lng,
		Available:           true,
		MaxDistanceKm:       maxDistanceKm,
		MaxQuantityKg:       availableKg,
		AvailableQuantityKg: availableKg,
		AverageRating:       rating,
		TotalInteractions:   interactions,
	}
	e.actorRepo.AddActor(actor)
	if err := e.geoIndex.Upsert(context.Background(), actor.Role, actor.ID, lat, lng); err != nil {
		t.Fatalf("geo upsert failed: %v", err)
	}
	return actor
}

func (e *engine) addVolunteer(t *testing.T, id string, lat, lng, maxDistanceKm float64) *domain.Actor {
	t.Helper()

	actor := &domain.Actor{
		ID:            id,
		Role:          domain.RoleVolunteer,
		Name:          id,
		Lat:           lat,
		Lng:           lng,
		Available:     true,
		MaxDistanceKm: maxDistanceKm,
	}
	e.actorRepo.AddActor(actor)
	if err := e.geoIndex.Upsert(context.Background(), actor.Role, actor.ID, lat, lng); err != nil {
		t.Fatalf("geo upsert failed: %v", err)
	}
	return actor
}

func (e *engine) submit(t *testing.T, quantityKg float64, expiresIn time.Duration) *domain.Donation {
	t.Helper()

	resp, err := e.coordinator.Submit(context.Background(), service.SubmitRequest{
		DonorID:     "donor-1",
		FoodDetails: "rice and curry",
		FoodType:    domain.FoodCookedMeal,
		QuantityKg:  quantityKg,
		Lat:         12.9716,
		Lng:         77.5946,
		ExpiryTime:  time.Now().Add(expiresIn),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return resp.Donation
}

func TestMatching_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	cases := []struct {
		name string
		req  service.SubmitRequest
		want error
	}{
		{
			name: "missing donor",
			req:  service.SubmitRequest{FoodDetails: "bread", QuantityKg: 5, Lat: 12.9, Lng: 77.6, ExpiryTime: time.Now().Add(time.Hour)},
			want: service.ErrInvalidDonorID,
		},
		{
			name: "zero quantity",
			req:  service.SubmitRequest{DonorID: "d", FoodDetails: "bread", QuantityKg: 0, Lat: 12.9, Lng: 77.6, ExpiryTime: time.Now().Add(time.Hour)},
			want: service.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			req:  service.SubmitRequest{DonorID: "d", FoodDetails: "bread", QuantityKg: -2, Lat: 12.9, Lng: 77.6, ExpiryTime: time.Now().Add(time.Hour)},
			want: service.ErrInvalidQuantity,
		},
		{
			name: "bad coordinates",
			req:  service.SubmitRequest{DonorID: "d", FoodDetails: "bread", QuantityKg: 5, Lat: 95, Lng: 77.6, ExpiryTime: time.Now().Add(time.Hour)},
			want: service.ErrInvalidCoordinates,
		},
		{
			name: "expiry in the past",
			req:  service.SubmitRequest{DonorID: "d", FoodDetails: "bread", QuantityKg: 5, Lat: 12.9, Lng: 77.6, ExpiryTime: time.Now().Add(-time.Minute)},
			want: service.ErrInvalidExpiry,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.coordinator.Submit(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if e.donationRepo.CountDonations() != 0 {
		t.Error("rejected submissions must not be persisted")
	}
}

func TestMatching_UnavailableActorsNeverProposed(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	e.addNGO(t, "ngo-online", 12.9750, 77.5950, 50, 100, 4.0, 10)
	offline := e.addNGO(t, "ngo-offline", 12.9740, 77.5948, 50, 100, 5.0, 50)
	offline.Available = false
	e.actorRepo.AddActor(offline)

	d := e.submit(t, 10, time.Hour)

	ranked, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleNGO)
	if err != nil {
		t.Fatalf("MatchOnce failed: %v", err)
	}

	if len(ranked) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(ranked))
	}
	if ranked[0].Actor.ID != "ngo-online" {
		t.Errorf("expected ngo-online, got %s", ranked[0].Actor.ID)
	}
}

func TestMatching_QuantityPolicyExcludesSmallNGO(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	// The closer NGO cannot take the full quantity; the farther one can.
	e.addNGO(t, "ngo-small", 12.9720, 77.5950, 50, 20, 4.5, 30)
	e.addNGO(t, "ngo-big", 12.9900, 77.6100, 50, 100, 4.0, 20)

	d := e.submit(t, 30, time.Hour)

	ranked, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleNGO)
	if err != nil {
		t.Fatalf("MatchOnce failed: %v", err)
	}

	if len(ranked) != 1 {
		t.Fatalf("expected only the big NGO, got %d candidates", len(ranked))
	}
	if ranked[0].Actor.ID != "ngo-big" {
		t.Errorf("expected ngo-big, got %s", ranked[0].Actor.ID)
	}
}

func TestMatching_DistancePolicyPerActor(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	// ngo-strict is ~11 km out with a 5 km policy; ngo-wide accepts 50 km.
	e.addNGO(t, "ngo-strict", 12.9716, 77.6946, 5, 100, 4.0, 10)
	e.addNGO(t, "ngo-wide", 12.9716, 77.6946, 50, 100, 4.0, 10)

	d := e.submit(t, 10, time.Hour)

	ranked, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleNGO)
	if err != nil {
		t.Fatalf("MatchOnce failed: %v", err)
	}

	if len(ranked) != 1 || ranked[0].Actor.ID != "ngo-wide" {
		t.Errorf("expected only ngo-wide, got %v", ranked)
	}
}

func TestMatching_DeterministicProposalOrder(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	// Identical NGOs at the same spot: ordering must settle on actor id.
	e.addNGO(t, "ngo-b", 12.9750, 77.5950, 50, 100, 4.0, 10)
	e.addNGO(t, "ngo-a", 12.9750, 77.5950, 50, 100, 4.0, 10)
	e.addNGO(t, "ngo-c", 12.9750, 77.5950, 50, 100, 4.0, 10)

	d := e.submit(t, 10, time.Hour)

	for run := 0; run < 3; run++ {
		ranked, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleNGO)
		if err != nil {
			t.Fatalf("MatchOnce failed: %v", err)
		}
		want := []string{"ngo-a", "ngo-b", "ngo-c"}
		for i, id := range want {
			if ranked[i].Actor.ID != id {
				t.Fatalf("run %d position %d: expected %s, got %s", run, i, id, ranked[i].Actor.ID)
			}
		}
	}
}

func TestMatching_NoCandidatesIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	d := e.submit(t, 10, time.Hour)

	ranked, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleNGO)
	if err != nil {
		t.Fatalf("MatchOnce with no actors must not error, got %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("expected no candidates, got %d", len(ranked))
	}
}

func TestMatching_MatchOnceDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	e.addNGO(t, "ngo-1", 12.9750, 77.5950, 50, 100, 4.0, 10)

	d := e.submit(t, 10, time.Hour)

	if _, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleNGO); err != nil {
		t.Fatalf("MatchOnce failed: %v", err)
	}

	stored := e.donationRepo.GetDonation(d.ID)
	if stored.Status != domain.DonationStatusPending || stored.AssignedNGOID != "" {
		t.Error("MatchOnce must not mutate the donation")
	}
	if got := e.actorRepo.GetActor("ngo-1").AvailableQuantityKg; got != 100 {
		t.Errorf("MatchOnce must not reserve capacity, headroom now %f", got)
	}
}

func TestMatching_VolunteerRoleMatching(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	e.addNGO(t, "ngo-1", 12.9750, 77.5950, 50, 100, 4.0, 10)
	e.addVolunteer(t, "vol-near", 12.9750, 77.5950, 10)
	e.addVolunteer(t, "vol-out-of-range", 13.1000, 77.8000, 10)

	d := e.submit(t, 10, time.Hour)

	ranked, err := e.coordinator.MatchOnce(ctx, d.ID, domain.RoleVolunteer)
	if err != nil {
		t.Fatalf("MatchOnce for volunteers failed: %v", err)
	}

	if len(ranked) != 1 || ranked[0].Actor.ID != "vol-near" {
		t.Errorf("expected only vol-near, got %v", ranked)
	}
}

func TestMatching_AutoAssignPicksTopCandidate(t *testing.T) {
	e := newEngine(t, service.MatchingOptions{AutoAssign: true})

	e.addNGO(t, "ngo-near", 12.9750, 77.5950, 50, 100, 4.0, 10)
	e.addNGO(t, "ngo-far", 13.0500, 77.7000, 50, 100, 4.0, 10)

	resp, err := e.coordinator.Submit(context.Background(), service.SubmitRequest{
		DonorID:     "donor-1",
		FoodDetails: "bread",
		QuantityKg:  10,
		Lat:         12.9716,
		Lng:         77.5946,
		ExpiryTime:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if !resp.NGOAssigned || resp.NGOID != "ngo-near" {
		t.Errorf("expected auto-assign to ngo-near, got assigned=%v id=%s", resp.NGOAssigned, resp.NGOID)
	}
	if resp.Donation.Status != domain.DonationStatusAccepted {
		t.Errorf("expected ACCEPTED after auto-assign, got %s", resp.Donation.Status)
	}
}

func TestMatching_AutoAssignWithNoCandidatesLeavesPending(t *testing.T) {
	e := newEngine(t, service.MatchingOptions{AutoAssign: true})

	resp, err := e.coordinator.Submit(context.Background(), service.SubmitRequest{
		DonorID:     "donor-1",
		FoodDetails: "bread",
		QuantityKg:  10,
		Lat:         12.9716,
		Lng:         77.5946,
		ExpiryTime:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("submit with no actors must still succeed, got %v", err)
	}

	if resp.NGOAssigned {
		t.Error("nothing to assign, yet NGOAssigned is set")
	}
	if resp.Donation.Status != domain.DonationStatusPending {
		t.Errorf("expected PENDING, got %s", resp.Donation.Status)
	}
}

func TestMatching_LockedDonationReportsInProgress(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, service.MatchingOptions{})

	e.addNGO(t, "ngo-1", 12.9750, 77.5950, 50, 100, 4.0, 10)
	d := e.submit(t, 10, time.Hour)

	e.lockStore.HoldDonationLock(d.ID, time.Minute)

	if _, err := e.coordinator.Assign(ctx, d.ID, "ngo-1"); !errors.Is(err, service.ErrMatchingInProgress) {
		t.Errorf("expected ErrMatchingInProgress, got %v", err)
	}
}
