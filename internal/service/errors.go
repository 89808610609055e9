package service

import "errors"

var (
	// ErrInvalidDonorID is returned when the donor ID is empty.
	ErrInvalidDonorID = errors.New("invalid donor id")

	// ErrInvalidDonationID is returned when the donation ID is empty.
	ErrInvalidDonationID = errors.New("invalid donation id")

	// ErrInvalidActorID is returned when the actor ID is empty.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrInvalidQuantity is returned when the donation quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidFoodDetails is returned when the food description is empty.
	ErrInvalidFoodDetails = errors.New("food details are required")

	// ErrInvalidCoordinates is returned for out-of-range latitude or longitude.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidExpiry is returned when the expiry time is not after creation.
	ErrInvalidExpiry = errors.New("expiry time must be after creation")

	// ErrInvalidRole is returned for an unknown actor role.
	ErrInvalidRole = errors.New("invalid actor role")

	// ErrInvalidRating is returned when a rating is outside [0, 5].
	ErrInvalidRating = errors.New("rating must be between 0 and 5")

	// ErrInvalidStatus is returned when a status filter names a status the
	// query cannot serve.
	ErrInvalidStatus = errors.New("invalid donation status")

	// ErrInvalidTransition is returned when a lifecycle transition is not
	// legal from the donation's current status, including any action on a
	// terminal donation.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrDonationTerminal is returned when matching is requested for a
	// donation in a terminal status.
	ErrDonationTerminal = errors.New("donation is terminal")

	// ErrDonationExpired is returned when a donation's expiry time has passed.
	ErrDonationExpired = errors.New("donation expired")

	// ErrIneligible is returned when an actor fails the eligibility policy
	// at assignment time.
	ErrIneligible = errors.New("actor is not eligible for this donation")

	// ErrSlotTaken is returned when the donation already has a different
	// actor assigned for the role; re-assignment requires a release first.
	ErrSlotTaken = errors.New("role slot already assigned")

	// ErrNoCandidateAvailable is returned when no eligible actor exists.
	ErrNoCandidateAvailable = errors.New("no eligible candidate available")

	// ErrMatchingInProgress is returned when the donation's transition lock
	// is held by another in-flight operation.
	ErrMatchingInProgress = errors.New("donation transition already in progress")

	// ErrNotDonationOwner is returned when a donor acts on a donation they
	// do not own.
	ErrNotDonationOwner = errors.New("not the donation owner")

	// ErrRoutingUnavailable is returned by routing oracles on failure or
	// timeout. It is recovered internally by falling back to great-circle
	// distance and never surfaced to callers.
	ErrRoutingUnavailable = errors.New("routing oracle unavailable")
)
