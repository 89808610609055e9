package service

import (
	"errors"
	"testing"
	"time"

	"foodbridge/internal/domain"
)

func pendingDonation(expiry time.Time) *domain.Donation {
	return &domain.Donation{
		ID:         "donation-1",
		DonorID:    "donor-1",
		Status:     domain.DonationStatusPending,
		QuantityKg: 10,
		ExpiryTime: expiry,
	}
}

func ngoActor(id string) *domain.Actor {
	return &domain.Actor{
		ID:                  id,
		Role:                domain.RoleNGO,
		Available:           true,
		MaxDistanceKm:       50,
		MaxQuantityKg:       100,
		AvailableQuantityKg: 100,
	}
}

func TestLifecycle_AssignFromPending(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	if err := lc.Assign(d, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if d.Status != domain.DonationStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", d.Status)
	}
	if d.AssignedNGOID != "ngo-1" {
		t.Errorf("expected ngo-1 in NGO slot, got %q", d.AssignedNGOID)
	}
}

func TestLifecycle_AssignIdempotentForSameActor(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	actor := ngoActor("ngo-1")
	if err := lc.Assign(d, actor, now); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if err := lc.Assign(d, actor, now.Add(time.Second)); err != nil {
		t.Fatalf("repeated assign should be a no-op, got: %v", err)
	}

	if d.Status != domain.DonationStatusAccepted || d.AssignedNGOID != "ngo-1" {
		t.Errorf("repeated assign changed state: status=%s ngo=%s", d.Status, d.AssignedNGOID)
	}
}

func TestLifecycle_AssignSlotTaken(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	if err := lc.Assign(d, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}

	err := lc.Assign(d, ngoActor("ngo-2"), now)
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
	if d.AssignedNGOID != "ngo-1" {
		t.Errorf("losing assign overwrote the slot: %s", d.AssignedNGOID)
	}
}

func TestLifecycle_AssignSecondRoleKeepsState(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	if err := lc.Assign(d, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("ngo assign failed: %v", err)
	}

	volunteer := &domain.Actor{
		ID:            "vol-1",
		Role:          domain.RoleVolunteer,
		Available:     true,
		MaxDistanceKm: 10,
	}
	if err := lc.Assign(d, volunteer, now); err != nil {
		t.Fatalf("volunteer assign failed: %v", err)
	}

	if d.Status != domain.DonationStatusAccepted {
		t.Errorf("filling a second slot must not change status, got %s", d.Status)
	}
	if d.AssignedVolunteerID != "vol-1" {
		t.Errorf("expected vol-1 in volunteer slot, got %q", d.AssignedVolunteerID)
	}
}

func TestLifecycle_RejectOnlyFromPending(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()

	d := pendingDonation(now.Add(time.Hour))
	if err := lc.Reject(d, now); err != nil {
		t.Fatalf("reject from PENDING failed: %v", err)
	}
	if d.Status != domain.DonationStatusRejected {
		t.Errorf("expected REJECTED, got %s", d.Status)
	}

	accepted := pendingDonation(now.Add(time.Hour))
	if err := lc.Assign(accepted, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := lc.Reject(accepted, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition rejecting ACCEPTED, got %v", err)
	}
}

func TestLifecycle_CancelReturnsToPendingAndClearsSlots(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	if err := lc.Assign(d, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	released := ReleasedActors(d)
	if released[domain.RoleNGO] != "ngo-1" {
		t.Fatalf("expected ngo-1 in released set, got %v", released)
	}

	if err := lc.Cancel(d, now); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if d.Status != domain.DonationStatusPending {
		t.Errorf("expected PENDING after cancel, got %s", d.Status)
	}
	if d.AssignedNGOID != "" || d.AssignedVolunteerID != "" || d.AssignedAgentID != "" {
		t.Error("cancel must clear all assignment slots")
	}
}

func TestLifecycle_PickupAndComplete(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()
	d := pendingDonation(now.Add(time.Hour))

	if err := lc.Assign(d, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := lc.Pickup(d, now); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	if d.Status != domain.DonationStatusPickedUp {
		t.Errorf("expected PICKED_UP, got %s", d.Status)
	}

	// Cancel is not allowed once picked up.
	if err := lc.Cancel(d, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition cancelling PICKED_UP, got %v", err)
	}

	if err := lc.Complete(d, now); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if d.Status != domain.DonationStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", d.Status)
	}
}

func TestLifecycle_CompleteIgnoresExpiry(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()

	d := pendingDonation(now.Add(time.Minute))
	if err := lc.Assign(d, ngoActor("ngo-1"), now); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := lc.Pickup(d, now); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}

	// Past expiry, but the food is already in transit.
	if err := lc.Complete(d, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("complete after expiry of a picked-up donation failed: %v", err)
	}
	if d.Status != domain.DonationStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", d.Status)
	}
}

func TestLifecycle_TerminalStatesAreClosed(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()

	for _, status := range []domain.DonationStatus{
		domain.DonationStatusRejected,
		domain.DonationStatusExpired,
		domain.DonationStatusCompleted,
	} {
		d := pendingDonation(now.Add(time.Hour))
		d.Status = status

		if err := lc.Assign(d, ngoActor("ngo-1"), now); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("assign from %s: expected ErrInvalidTransition, got %v", status, err)
		}
		if err := lc.Cancel(d, now); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancel from %s: expected ErrInvalidTransition, got %v", status, err)
		}
		if err := lc.Pickup(d, now); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("pickup from %s: expected ErrInvalidTransition, got %v", status, err)
		}
		if status != domain.DonationStatusCompleted {
			if err := lc.Complete(d, now); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("complete from %s: expected ErrInvalidTransition, got %v", status, err)
			}
		}
		if d.Status != status {
			t.Errorf("terminal status %s mutated to %s", status, d.Status)
		}
	}
}

func TestLifecycle_ExpireIfDue(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()

	d := pendingDonation(now.Add(-time.Second))
	if !lc.ExpireIfDue(d, now) {
		t.Fatal("expected overdue PENDING donation to expire")
	}
	if d.Status != domain.DonationStatusExpired {
		t.Errorf("expected EXPIRED, got %s", d.Status)
	}

	// Expiry is monotonic: once expired, nothing reopens it.
	if lc.ExpireIfDue(d, now.Add(time.Hour)) {
		t.Error("expired donation must not expire twice")
	}

	fresh := pendingDonation(now.Add(time.Hour))
	if lc.ExpireIfDue(fresh, now) {
		t.Error("donation before its deadline must not expire")
	}

	picked := pendingDonation(now.Add(-time.Second))
	picked.Status = domain.DonationStatusPickedUp
	if lc.ExpireIfDue(picked, now) {
		t.Error("PICKED_UP donations are past the perishability gate")
	}
}

func TestLifecycle_MutatingOverdueDonationExpiresIt(t *testing.T) {
	lc := NewLifecycle()
	now := time.Now()

	d := pendingDonation(now.Add(-time.Minute))
	err := lc.Assign(d, ngoActor("ngo-1"), now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition assigning overdue donation, got %v", err)
	}
	if d.Status != domain.DonationStatusExpired {
		t.Errorf("lazy expiry should have fired, got %s", d.Status)
	}
}
