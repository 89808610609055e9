package domain

import "time"

// DonationStatus represents the current status of a donation.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusAccepted  DonationStatus = "ACCEPTED"
	DonationStatusPickedUp  DonationStatus = "PICKED_UP"
	DonationStatusRejected  DonationStatus = "REJECTED"
	DonationStatusExpired   DonationStatus = "EXPIRED"
	DonationStatusCompleted DonationStatus = "COMPLETED"
)

// Terminal reports whether no further transition is permitted from the status.
func (s DonationStatus) Terminal() bool {
	switch s {
	case DonationStatusRejected, DonationStatusExpired, DonationStatusCompleted:
		return true
	default:
		return false
	}
}

// FoodType categorizes the donated food.
type FoodType string

const (
	FoodCookedMeal    FoodType = "COOKED_MEAL"
	FoodFreshFruits   FoodType = "FRESH_FRUITS"
	FoodVegetables    FoodType = "VEGETABLES"
	FoodBreadBakery   FoodType = "BREAD_BAKERY"
	FoodDairyProducts FoodType = "DAIRY_PRODUCTS"
	FoodPackaged      FoodType = "PACKAGED_FOOD"
	FoodLeftovers     FoodType = "LEFTOVERS"
	FoodOther         FoodType = "OTHER"
)

// Donation represents a posted surplus-food donation. DonorID is the
// immutable owner; assigned actors reference the donation for the duration
// of the match but never own it. QuantityKg is fixed at creation.
type Donation struct {
	ID      string
	DonorID string

	FoodDetails         string
	FoodType            FoodType
	QuantityKg          float64
	SpecialInstructions string

	Lat float64
	Lng float64

	Status DonationStatus

	// At most one assigned actor per role at a time. Empty means unassigned.
	AssignedNGOID       string
	AssignedVolunteerID string
	AssignedAgentID     string

	CreatedAt         time.Time
	PickupWindowStart time.Time
	ExpiryTime        time.Time
	UpdatedAt         time.Time
}

// AssignedID returns the assigned actor id for the given role.
func (d *Donation) AssignedID(role ActorRole) string {
	switch role {
	case RoleNGO:
		return d.AssignedNGOID
	case RoleVolunteer:
		return d.AssignedVolunteerID
	case RoleDeliveryAgent:
		return d.AssignedAgentID
	default:
		return ""
	}
}

// SetAssignedID sets the assigned actor id for the given role.
func (d *Donation) SetAssignedID(role ActorRole, actorID string) {
	switch role {
	case RoleNGO:
		d.AssignedNGOID = actorID
	case RoleVolunteer:
		d.AssignedVolunteerID = actorID
	case RoleDeliveryAgent:
		d.AssignedAgentID = actorID
	}
}

// ExpiredAt reports whether the donation's expiry time has passed at now.
func (d *Donation) ExpiredAt(now time.Time) bool {
	return now.After(d.ExpiryTime)
}
