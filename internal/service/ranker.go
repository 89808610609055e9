package service

import (
	"context"
	"sort"
	"time"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
)

// RankWeights is the composite-score configuration surface. Distance
// dominates by default but is never the sole criterion.
type RankWeights struct {
	Distance    float64
	Reliability float64
	Headroom    float64
}

// DefaultRankWeights returns the documented default weights.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		Distance:    0.6,
		Reliability: 0.3,
		Headroom:    0.1,
	}
}

// RankedCandidate is an eligible actor with its composite score. DistanceKm
// is the travel distance used for scoring: the routing oracle's estimate
// when one responded in time, great-circle otherwise.
type RankedCandidate struct {
	Actor      *domain.Actor
	DistanceKm float64
	Score      float64
}

// Ranker produces a total order over eligible candidates, highest priority
// first. Ordering is deterministic: ties on score break by reliability, then
// by actor id.
type Ranker struct {
	weights        RankWeights
	oracle         RoutingOracle
	routingTimeout time.Duration
}

// NewRanker creates a Ranker. The oracle is optional; nil means great-circle
// distance only.
func NewRanker(weights RankWeights, oracle RoutingOracle, routingTimeout time.Duration) *Ranker {
	return &Ranker{
		weights:        weights,
		oracle:         oracle,
		routingTimeout: routingTimeout,
	}
}

// Rank scores the eligible candidates for a donation and returns them in
// proposal order. Empty input yields an empty sequence.
func (r *Ranker) Rank(ctx context.Context, d *domain.Donation, eligible []EligibleCandidate) []RankedCandidate {
	if len(eligible) == 0 {
		return nil
	}

	ranked := make([]RankedCandidate, 0, len(eligible))
	for _, c := range eligible {
		ranked = append(ranked, RankedCandidate{
			Actor:      c.Actor,
			DistanceKm: r.travelDistance(ctx, d, c),
		})
	}

	// Normalize each signal against the candidate set so weights compare
	// like with like.
	var maxDistance, maxReliability, maxHeadroom float64
	for _, c := range ranked {
		if c.DistanceKm > maxDistance {
			maxDistance = c.DistanceKm
		}
		if rel := c.Actor.Reliability(); rel > maxReliability {
			maxReliability = rel
		}
		if h := c.Actor.QuantityHeadroom(); h > maxHeadroom {
			maxHeadroom = h
		}
	}

	for i := range ranked {
		c := &ranked[i]

		distanceScore := 1.0
		if maxDistance > 0 {
			distanceScore = 1 - c.DistanceKm/maxDistance
		}

		reliabilityScore := 0.0
		if maxReliability > 0 {
			reliabilityScore = c.Actor.Reliability() / maxReliability
		}

		headroomScore := 0.0
		if maxHeadroom > 0 {
			headroomScore = c.Actor.QuantityHeadroom() / maxHeadroom
		}

		c.Score = r.weights.Distance*distanceScore +
			r.weights.Reliability*reliabilityScore +
			r.weights.Headroom*headroomScore
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		ri, rj := ranked[i].Actor.Reliability(), ranked[j].Actor.Reliability()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Actor.ID < ranked[j].Actor.ID
	})

	return ranked
}

// travelDistance asks the routing oracle for a finer travel estimate, under
// a hard timeout. Oracle failure is recovered by great-circle distance and
// never propagated.
func (r *Ranker) travelDistance(ctx context.Context, d *domain.Donation, c EligibleCandidate) float64 {
	if r.oracle == nil {
		return c.DistanceKm
	}

	oracleCtx := ctx
	if r.routingTimeout > 0 {
		var cancel context.CancelFunc
		oracleCtx, cancel = context.WithTimeout(ctx, r.routingTimeout)
		defer cancel()
	}

	from := geo.Point{Lat: d.Lat, Lng: d.Lng}
	to := geo.Point{Lat: c.Actor.Lat, Lng: c.Actor.Lng}

	estimate, err := r.oracle.Travel(oracleCtx, from, to, travelModeFor(c.Actor))
	if err != nil || estimate.DistanceKm <= 0 {
		return c.DistanceKm
	}
	return estimate.DistanceKm
}

func travelModeFor(actor *domain.Actor) TravelMode {
	switch actor.Role {
	case domain.RoleVolunteer:
		return TravelModeCycling
	default:
		return TravelModeDriving
	}
}
