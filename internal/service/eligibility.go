package service

import (
	"time"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
)

// EligibleCandidate pairs an actor with its geo candidate record.
type EligibleCandidate struct {
	Actor      *domain.Actor
	DistanceKm float64
}

// EligibilityFilter reduces raw geo candidates to the actors an actor-role
// policy permits for a donation. Pure; no side effects.
type EligibilityFilter struct{}

// NewEligibilityFilter creates a new EligibilityFilter.
func NewEligibilityFilter() *EligibilityFilter {
	return &EligibilityFilter{}
}

// Eligible applies the policy rules in order and reports whether the actor
// passes. The first failing rule rejects:
//  1. actor available / accepting
//  2. distance within the actor's per-role max distance
//  3. NGOs only: donation quantity within remaining headroom
//  4. donation not past expiry
func (f *EligibilityFilter) Eligible(d *domain.Donation, actor *domain.Actor, distanceKm float64, now time.Time) bool {
	if !actor.Available {
		return false
	}
	if distanceKm > actor.MaxDistanceKm {
		return false
	}
	if actor.Role == domain.RoleNGO && d.QuantityKg > actor.AvailableQuantityKg {
		return false
	}
	if d.ExpiredAt(now) {
		return false
	}
	return true
}

// Filter pairs geo candidates with their actor records and keeps the
// eligible ones, preserving the input (distance) order.
func (f *EligibilityFilter) Filter(d *domain.Donation, candidates []geo.Candidate, actors map[string]*domain.Actor, now time.Time) []EligibleCandidate {
	eligible := make([]EligibleCandidate, 0, len(candidates))
	for _, c := range candidates {
		actor, ok := actors[c.ActorID]
		if !ok {
			continue
		}
		if !f.Eligible(d, actor, c.DistanceKm, now) {
			continue
		}
		eligible = append(eligible, EligibleCandidate{
			Actor:      actor,
			DistanceKm: c.DistanceKm,
		})
	}
	return eligible
}
