package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for per-entity mutual exclusion.
type LockStoreInterface interface {
	AcquireDonationLock(ctx context.Context, donationID string, ttl time.Duration) (bool, error)
	ReleaseDonationLock(ctx context.Context, donationID string) error
	AcquireActorLock(ctx context.Context, actorID string, ttl time.Duration) (bool, error)
	ReleaseActorLock(ctx context.Context, actorID string) error
}

// Ensure concrete types implement interfaces.
var _ LockStoreInterface = (*LockStore)(nil)
