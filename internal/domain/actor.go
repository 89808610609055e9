package domain

import (
	"math"
	"time"
)

// ActorRole identifies the kind of participant an actor is.
type ActorRole string

const (
	RoleNGO           ActorRole = "NGO"
	RoleVolunteer     ActorRole = "VOLUNTEER"
	RoleDeliveryAgent ActorRole = "DELIVERY_AGENT"
)

// ValidRole reports whether the role is one of the known actor roles.
func ValidRole(r ActorRole) bool {
	switch r {
	case RoleNGO, RoleVolunteer, RoleDeliveryAgent:
		return true
	default:
		return false
	}
}

// VehicleType represents the vehicle class of a delivery agent.
type VehicleType string

const (
	VehicleBike         VehicleType = "BIKE"
	VehicleCar          VehicleType = "CAR"
	VehicleVan          VehicleType = "VAN"
	VehicleTruck        VehicleType = "TRUCK"
	VehicleAutoRickshaw VehicleType = "AUTO_RICKSHAW"
)

// Actor represents an NGO, volunteer, or delivery agent that can be matched
// to a donation. Role-specific policy lives in the per-role fields rather
// than a type hierarchy; the Role tag says which fields apply.
type Actor struct {
	ID    string
	Role  ActorRole
	Name  string
	Phone string
	Lat   float64
	Lng   float64

	// Available means acceptsDonations for NGOs and isAvailable for
	// volunteers and delivery agents. An unavailable actor is never matched.
	Available bool

	// MaxDistanceKm is the actor's distance policy: donation-to-NGO for NGOs,
	// pickup distance for volunteers, delivery distance for agents.
	MaxDistanceKm float64

	// MaxQuantityKg and AvailableQuantityKg apply to NGOs only.
	// AvailableQuantityKg is the remaining headroom; assignment reserves
	// from it, cancellation releases back into it.
	MaxQuantityKg       float64
	AvailableQuantityKg float64

	// Vehicle applies to delivery agents only.
	Vehicle VehicleType

	// Reliability stats.
	AverageRating     float64
	TotalInteractions int

	CreatedAt time.Time
}

// QuantityHeadroom returns the remaining quantity budget for NGOs. Roles
// without a quantity policy report zero, which the ranker reads as the
// absence of a headroom signal rather than a full reservation.
func (a *Actor) QuantityHeadroom() float64 {
	if a.Role != RoleNGO {
		return 0
	}
	return a.AvailableQuantityKg
}

// Reliability aggregates the actor's rating history into a single score.
// A high rating over many interactions beats the same rating over few.
func (a *Actor) Reliability() float64 {
	if a.TotalInteractions <= 0 {
		return 0
	}
	return a.AverageRating * math.Log1p(float64(a.TotalInteractions))
}

// RecordInteraction folds a completed handoff into the reliability stats.
func (a *Actor) RecordInteraction(rating float64) {
	a.TotalInteractions++
	n := float64(a.TotalInteractions)
	a.AverageRating = ((a.AverageRating * (n - 1)) + rating) / n
}
