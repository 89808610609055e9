package service

import (
	"fmt"
	"time"

	"foodbridge/internal/domain"
)

// Lifecycle owns the donation state machine. All methods mutate the passed
// donation in memory only; persistence and locking are the coordinator's job.
//
//	PENDING   --Assign-->  ACCEPTED
//	PENDING   --Reject-->  REJECTED    (terminal)
//	PENDING   --Expire-->  EXPIRED     (terminal)
//	ACCEPTED  --Pickup-->  PICKED_UP
//	ACCEPTED  --Cancel-->  PENDING     (actors released)
//	ACCEPTED  --Expire-->  EXPIRED     (terminal)
//	PICKED_UP --Complete-> COMPLETED   (terminal)
type Lifecycle struct{}

// NewLifecycle creates a new Lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// transitionErr builds an InvalidTransition error naming the attempted move.
func transitionErr(action string, from domain.DonationStatus) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, from)
}

// ExpireIfDue applies the time-triggered expiry transition when the
// donation's deadline has passed while PENDING or ACCEPTED. Returns true if
// the donation transitioned. Assigned actors are released by ReleasedActors.
func (l *Lifecycle) ExpireIfDue(d *domain.Donation, now time.Time) bool {
	if d.Status != domain.DonationStatusPending && d.Status != domain.DonationStatusAccepted {
		return false
	}
	if !d.ExpiredAt(now) {
		return false
	}

	d.Status = domain.DonationStatusExpired
	d.UpdatedAt = now
	return true
}

// Assign attaches an actor to the donation's slot for the actor's role.
// From PENDING the donation becomes ACCEPTED; from ACCEPTED an empty slot
// for an additional role is filled without a state change. Assigning the
// same actor to its already-held slot is a no-op, so retries are idempotent
// per (donation, actor) pair.
func (l *Lifecycle) Assign(d *domain.Donation, actor *domain.Actor, now time.Time) error {
	if l.ExpireIfDue(d, now) {
		return transitionErr("assign", d.Status)
	}
	if d.Status.Terminal() || d.Status == domain.DonationStatusPickedUp {
		return transitionErr("assign", d.Status)
	}

	current := d.AssignedID(actor.Role)
	if current == actor.ID {
		return nil
	}
	if current != "" {
		return fmt.Errorf("%w: %s slot held by %s", ErrSlotTaken, actor.Role, current)
	}

	d.SetAssignedID(actor.Role, actor.ID)
	if d.Status == domain.DonationStatusPending {
		d.Status = domain.DonationStatusAccepted
	}
	d.UpdatedAt = now
	return nil
}

// Reject moves a PENDING donation to the terminal REJECTED status.
func (l *Lifecycle) Reject(d *domain.Donation, now time.Time) error {
	if l.ExpireIfDue(d, now) {
		return transitionErr("reject", d.Status)
	}
	if d.Status != domain.DonationStatusPending {
		return transitionErr("reject", d.Status)
	}

	d.Status = domain.DonationStatusRejected
	d.UpdatedAt = now
	return nil
}

// Cancel releases all assigned actors and returns an ACCEPTED donation to
// PENDING so it re-enters matching. The released actor ids are reported via
// ReleasedActors before calling Cancel.
func (l *Lifecycle) Cancel(d *domain.Donation, now time.Time) error {
	if l.ExpireIfDue(d, now) {
		return transitionErr("cancel", d.Status)
	}
	if d.Status != domain.DonationStatusAccepted {
		return transitionErr("cancel", d.Status)
	}

	d.AssignedNGOID = ""
	d.AssignedVolunteerID = ""
	d.AssignedAgentID = ""
	d.Status = domain.DonationStatusPending
	d.UpdatedAt = now
	return nil
}

// Pickup moves an ACCEPTED donation to PICKED_UP.
func (l *Lifecycle) Pickup(d *domain.Donation, now time.Time) error {
	if l.ExpireIfDue(d, now) {
		return transitionErr("pickup", d.Status)
	}
	if d.Status != domain.DonationStatusAccepted {
		return transitionErr("pickup", d.Status)
	}

	d.Status = domain.DonationStatusPickedUp
	d.UpdatedAt = now
	return nil
}

// Complete moves a PICKED_UP donation to the terminal COMPLETED status.
// A picked-up donation is past its perishability gate, so expiry no longer
// applies.
func (l *Lifecycle) Complete(d *domain.Donation, now time.Time) error {
	if d.Status != domain.DonationStatusPickedUp {
		return transitionErr("complete", d.Status)
	}

	d.Status = domain.DonationStatusCompleted
	d.UpdatedAt = now
	return nil
}

// ReleasedActors returns the (role, actorID) pairs currently assigned to the
// donation. Capacity for each must be released when the donation leaves
// ACCEPTED other than by pickup.
func ReleasedActors(d *domain.Donation) map[domain.ActorRole]string {
	released := make(map[domain.ActorRole]string)
	if d.AssignedNGOID != "" {
		released[domain.RoleNGO] = d.AssignedNGOID
	}
	if d.AssignedVolunteerID != "" {
		released[domain.RoleVolunteer] = d.AssignedVolunteerID
	}
	if d.AssignedAgentID != "" {
		released[domain.RoleDeliveryAgent] = d.AssignedAgentID
	}
	return released
}
