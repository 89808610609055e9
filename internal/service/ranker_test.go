package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
)

// scriptedOracle returns a fixed road distance per destination point.
type scriptedOracle struct {
	distances map[geo.Point]float64
	err       error
	delay     time.Duration
}

func (o *scriptedOracle) Travel(ctx context.Context, from, to geo.Point, mode TravelMode) (TravelEstimate, error) {
	if o.delay > 0 {
		select {
		case <-ctx.Done():
			return TravelEstimate{}, ctx.Err()
		case <-time.After(o.delay):
		}
	}
	if o.err != nil {
		return TravelEstimate{}, o.err
	}
	return TravelEstimate{DistanceKm: o.distances[to]}, nil
}

func eligibleNGO(id string, distanceKm, rating float64, interactions int) EligibleCandidate {
	return EligibleCandidate{
		Actor: &domain.Actor{
			ID:                  id,
			Role:                domain.RoleNGO,
			Available:           true,
			MaxDistanceKm:       50,
			MaxQuantityKg:       100,
			AvailableQuantityKg: 100,
			AverageRating:       rating,
			TotalInteractions:   interactions,
		},
		DistanceKm: distanceKm,
	}
}

func TestRanker_DistanceDominatesByDefault(t *testing.T) {
	r := NewRanker(DefaultRankWeights(), nil, 0)
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	ranked := r.Rank(context.Background(), d, []EligibleCandidate{
		eligibleNGO("ngo-far", 20.0, 4.0, 10),
		eligibleNGO("ngo-near", 2.0, 4.0, 10),
	})

	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].Actor.ID != "ngo-near" {
		t.Errorf("expected ngo-near first, got %s", ranked[0].Actor.ID)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("scores not descending: %f then %f", ranked[0].Score, ranked[1].Score)
	}
}

func TestRanker_ReliabilityBreaksProximity(t *testing.T) {
	// With distance weight zeroed, the seasoned NGO must win regardless of
	// position.
	r := NewRanker(RankWeights{Distance: 0, Reliability: 1, Headroom: 0}, nil, 0)
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	ranked := r.Rank(context.Background(), d, []EligibleCandidate{
		eligibleNGO("ngo-new", 1.0, 0, 0),
		eligibleNGO("ngo-seasoned", 15.0, 4.8, 200),
	})

	if ranked[0].Actor.ID != "ngo-seasoned" {
		t.Errorf("expected ngo-seasoned first, got %s", ranked[0].Actor.ID)
	}
}

func TestRanker_DeterministicTieBreakByActorID(t *testing.T) {
	r := NewRanker(DefaultRankWeights(), nil, 0)
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	// Identical signals everywhere, so ordering falls through to actor id.
	candidates := []EligibleCandidate{
		eligibleNGO("ngo-c", 5.0, 4.0, 10),
		eligibleNGO("ngo-a", 5.0, 4.0, 10),
		eligibleNGO("ngo-b", 5.0, 4.0, 10),
	}

	first := r.Rank(context.Background(), d, candidates)
	second := r.Rank(context.Background(), d, candidates)

	want := []string{"ngo-a", "ngo-b", "ngo-c"}
	for i, id := range want {
		if first[i].Actor.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, first[i].Actor.ID)
		}
		if first[i].Actor.ID != second[i].Actor.ID {
			t.Errorf("ranking not deterministic at position %d", i)
		}
	}
}

func TestRanker_EmptyInput(t *testing.T) {
	r := NewRanker(DefaultRankWeights(), nil, 0)
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	if ranked := r.Rank(context.Background(), d, nil); len(ranked) != 0 {
		t.Errorf("expected empty ranking for empty input, got %d", len(ranked))
	}
}

func TestRanker_OracleDistanceUsedWhenAvailable(t *testing.T) {
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))
	d.Lat, d.Lng = 12.97, 77.59

	near := eligibleNGO("ngo-near", 2.0, 4.0, 10)
	near.Actor.Lat, near.Actor.Lng = 12.99, 77.59
	far := eligibleNGO("ngo-far", 4.0, 4.0, 10)
	far.Actor.Lat, far.Actor.Lng = 13.01, 77.59

	// The road network inverts straight-line proximity.
	oracle := &scriptedOracle{distances: map[geo.Point]float64{
		{Lat: near.Actor.Lat, Lng: near.Actor.Lng}: 12.0,
		{Lat: far.Actor.Lat, Lng: far.Actor.Lng}:   5.0,
	}}

	r := NewRanker(RankWeights{Distance: 1, Reliability: 0, Headroom: 0}, oracle, time.Second)
	ranked := r.Rank(context.Background(), d, []EligibleCandidate{near, far})

	if ranked[0].Actor.ID != "ngo-far" {
		t.Errorf("expected road distance to drive ranking, got %s first", ranked[0].Actor.ID)
	}
	if ranked[0].DistanceKm != 5.0 {
		t.Errorf("expected oracle distance 5.0, got %f", ranked[0].DistanceKm)
	}
}

func TestRanker_OracleErrorFallsBackToGreatCircle(t *testing.T) {
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	oracle := &scriptedOracle{err: errors.New("provider down")}
	r := NewRanker(RankWeights{Distance: 1, Reliability: 0, Headroom: 0}, oracle, time.Second)

	ranked := r.Rank(context.Background(), d, []EligibleCandidate{
		eligibleNGO("ngo-near", 2.0, 4.0, 10),
		eligibleNGO("ngo-far", 8.0, 4.0, 10),
	})

	if ranked[0].Actor.ID != "ngo-near" || ranked[0].DistanceKm != 2.0 {
		t.Errorf("expected great-circle fallback, got %s at %f", ranked[0].Actor.ID, ranked[0].DistanceKm)
	}
}

func TestRanker_SlowOracleTimesOutAndFallsBack(t *testing.T) {
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	oracle := &scriptedOracle{
		delay:     200 * time.Millisecond,
		distances: map[geo.Point]float64{},
	}
	r := NewRanker(RankWeights{Distance: 1, Reliability: 0, Headroom: 0}, oracle, 10*time.Millisecond)

	start := time.Now()
	ranked := r.Rank(context.Background(), d, []EligibleCandidate{
		eligibleNGO("ngo-near", 2.0, 4.0, 10),
	})
	elapsed := time.Since(start)

	if ranked[0].DistanceKm != 2.0 {
		t.Errorf("expected fallback to great-circle distance, got %f", ranked[0].DistanceKm)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("ranking waited for the slow oracle: %v", elapsed)
	}
}
