package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles actor entity caching in Redis. Matching reads actor
// policy many times per pass; the cache keeps the hot path off Postgres.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// ActorCacheTTL is short because availability and capacity change on every
// assignment.
const ActorCacheTTL = 30 * time.Second

const actorCachePrefix = "cache:actor:"

// CachedActor represents a cached actor entity.
type CachedActor struct {
	ID                  string  `json:"id"`
	Role                string  `json:"role"`
	Name                string  `json:"name"`
	Available           bool    `json:"available"`
	MaxDistanceKm       float64 `json:"max_distance_km"`
	MaxQuantityKg       float64 `json:"max_quantity_kg"`
	AvailableQuantityKg float64 `json:"available_quantity_kg"`
	AverageRating       float64 `json:"average_rating"`
	TotalInteractions   int     `json:"total_interactions"`
}

// GetActor retrieves an actor from cache. A miss returns (nil, nil).
func (s *CacheStore) GetActor(ctx context.Context, actorID string) (*CachedActor, error) {
	key := actorCachePrefix + actorID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var actor CachedActor
	if err := json.Unmarshal(data, &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

// SetActor stores an actor in cache.
func (s *CacheStore) SetActor(ctx context.Context, actor *CachedActor) error {
	key := actorCachePrefix + actor.ID
	data, err := json.Marshal(actor)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ActorCacheTTL).Err()
}

// InvalidateActor removes an actor from cache. Called after any capacity or
// availability mutation.
func (s *CacheStore) InvalidateActor(ctx context.Context, actorID string) error {
	key := actorCachePrefix + actorID
	return s.client.Del(ctx, key).Err()
}

// GetActorsBatch retrieves multiple actors from cache in one MGET. Returns
// the hits keyed by id and the ids that missed.
func (s *CacheStore) GetActorsBatch(ctx context.Context, actorIDs []string) (map[string]*CachedActor, []string, error) {
	if len(actorIDs) == 0 {
		return make(map[string]*CachedActor), nil, nil
	}

	keys := make([]string, len(actorIDs))
	for i, id := range actorIDs {
		keys[i] = actorCachePrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, actorIDs, err
	}

	hits := make(map[string]*CachedActor)
	var misses []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, actorIDs[i])
			continue
		}
		var actor CachedActor
		if err := json.Unmarshal([]byte(raw), &actor); err != nil {
			misses = append(misses, actorIDs[i])
			continue
		}
		hits[actor.ID] = &actor
	}

	return hits, misses, nil
}
