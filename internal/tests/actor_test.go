package tests

import (
	"context"
	"errors"
	"testing"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
	"foodbridge/internal/service"
)

func newActorService(t *testing.T) (*service.ActorService, *MockActorRepository, *geo.MemoryIndex) {
	t.Helper()
	actorRepo := NewMockActorRepository()
	geoIndex := geo.NewMemoryIndex()
	return service.NewActorService(geoIndex, nil, actorRepo), actorRepo, geoIndex
}

func TestActorRegister_AppliesRoleDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newActorService(t)

	cases := []struct {
		role         domain.ActorRole
		wantDistance float64
	}{
		{domain.RoleNGO, 50},
		{domain.RoleVolunteer, 10},
		{domain.RoleDeliveryAgent, 25},
	}

	for _, tc := range cases {
		actor, err := svc.Register(ctx, service.RegisterActorRequest{
			Role: tc.role,
			Name: "actor",
			Lat:  12.97,
			Lng:  77.59,
		})
		if err != nil {
			t.Fatalf("register %s failed: %v", tc.role, err)
		}
		if actor.MaxDistanceKm != tc.wantDistance {
			t.Errorf("%s: expected default distance %f, got %f", tc.role, tc.wantDistance, actor.MaxDistanceKm)
		}
		if !actor.Available {
			t.Errorf("%s: new actors start available", tc.role)
		}
	}
}

func TestActorRegister_NGOCapacityDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newActorService(t)

	ngo, err := svc.Register(ctx, service.RegisterActorRequest{
		Role: domain.RoleNGO,
		Name: "shelter",
		Lat:  12.97,
		Lng:  77.59,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if ngo.MaxQuantityKg != 100 || ngo.AvailableQuantityKg != 100 {
		t.Errorf("expected default NGO capacity 100/100, got %f/%f", ngo.MaxQuantityKg, ngo.AvailableQuantityKg)
	}

	custom, err := svc.Register(ctx, service.RegisterActorRequest{
		Role:          domain.RoleNGO,
		Name:          "big shelter",
		Lat:           12.97,
		Lng:           77.59,
		MaxQuantityKg: 250,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if custom.AvailableQuantityKg != 250 {
		t.Errorf("expected headroom to start at configured max, got %f", custom.AvailableQuantityKg)
	}
}

func TestActorRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newActorService(t)

	if _, err := svc.Register(ctx, service.RegisterActorRequest{Role: "PILOT", Name: "x", Lat: 0, Lng: 0}); !errors.Is(err, service.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.Register(ctx, service.RegisterActorRequest{Role: domain.RoleNGO, Name: "x", Lat: 95, Lng: 0}); !errors.Is(err, service.ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
	if repo.CreateCallCount != 0 {
		t.Error("invalid registrations must not hit the repository")
	}
}

func TestActorRegister_IndexesPosition(t *testing.T) {
	ctx := context.Background()
	svc, _, geoIndex := newActorService(t)

	actor, err := svc.Register(ctx, service.RegisterActorRequest{
		Role: domain.RoleVolunteer,
		Name: "rider",
		Lat:  12.975,
		Lng:  77.595,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	candidates, err := geoIndex.WithinRadius(ctx, domain.RoleVolunteer, geo.Point{Lat: 12.9716, Lng: 77.5946}, 5)
	if err != nil {
		t.Fatalf("WithinRadius failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ActorID != actor.ID {
		t.Errorf("registered actor missing from geo index: %v", candidates)
	}
}

func TestActorUpdateLocation_MovesIndex(t *testing.T) {
	ctx := context.Background()
	svc, _, geoIndex := newActorService(t)

	actor, err := svc.Register(ctx, service.RegisterActorRequest{
		Role: domain.RoleVolunteer,
		Name: "rider",
		Lat:  13.5,
		Lng:  77.59,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	err = svc.UpdateLocation(ctx, service.UpdateLocationRequest{
		ActorID: actor.ID,
		Lat:     12.975,
		Lng:     77.595,
	})
	if err != nil {
		t.Fatalf("update location failed: %v", err)
	}

	candidates, _ := geoIndex.WithinRadius(ctx, domain.RoleVolunteer, geo.Point{Lat: 12.9716, Lng: 77.5946}, 5)
	if len(candidates) != 1 {
		t.Fatalf("expected moved actor in range, got %d candidates", len(candidates))
	}
}

func TestActorAddRating_IncrementalAverage(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newActorService(t)

	actor, err := svc.Register(ctx, service.RegisterActorRequest{
		Role: domain.RoleNGO,
		Name: "shelter",
		Lat:  12.97,
		Lng:  77.59,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.AddRating(ctx, actor.ID, 4.0); err != nil {
		t.Fatalf("first rating failed: %v", err)
	}
	if _, err := svc.AddRating(ctx, actor.ID, 5.0); err != nil {
		t.Fatalf("second rating failed: %v", err)
	}

	stored := repo.GetActor(actor.ID)
	if stored.TotalInteractions != 2 {
		t.Errorf("expected 2 interactions, got %d", stored.TotalInteractions)
	}
	if stored.AverageRating != 4.5 {
		t.Errorf("expected running average 4.5, got %f", stored.AverageRating)
	}

	if _, err := svc.AddRating(ctx, actor.ID, 5.5); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating for out-of-range rating, got %v", err)
	}
}

func TestActorSetAvailability(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newActorService(t)

	actor, err := svc.Register(ctx, service.RegisterActorRequest{
		Role: domain.RoleDeliveryAgent,
		Name: "driver",
		Lat:  12.97,
		Lng:  77.59,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.SetAvailability(ctx, actor.ID, false); err != nil {
		t.Fatalf("set availability failed: %v", err)
	}
	if repo.GetActor(actor.ID).Available {
		t.Error("expected actor to be unavailable")
	}

	if err := svc.SetAvailability(ctx, "unknown-actor", true); err == nil {
		t.Error("expected error for unknown actor")
	}
}
