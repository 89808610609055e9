package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles per-entity mutual exclusion in Redis. Every mutating
// donation transition runs inside a donation lock; capacity mutations also
// hold the affected actor's lock.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireDonationLock attempts to acquire the transition lock for a donation.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDonationLock(ctx context.Context, donationID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:donation:%s", donationID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseDonationLock releases the transition lock for a donation.
func (s *LockStore) ReleaseDonationLock(ctx context.Context, donationID string) error {
	key := fmt.Sprintf("lock:donation:%s", donationID)

	return s.client.Del(ctx, key).Err()
}

// AcquireActorLock attempts to acquire the capacity lock for an actor.
func (s *LockStore) AcquireActorLock(ctx context.Context, actorID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:actor:%s", actorID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseActorLock releases the capacity lock for an actor.
func (s *LockStore) ReleaseActorLock(ctx context.Context, actorID string) error {
	key := fmt.Sprintf("lock:actor:%s", actorID)

	return s.client.Del(ctx, key).Err()
}
