package geo

import (
	"context"
	"sort"
	"sync"

	"foodbridge/internal/domain"
)

// Candidate is an actor position returned by an index query, with the
// precomputed great-circle distance from the query point attached.
type Candidate struct {
	ActorID    string
	Role       domain.ActorRole
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// Index stores actor positions per role and answers radius and nearest-k
// queries ordered by ascending distance. Reads are pure; an empty result is
// not an error. Implementations return ErrInvalidCoordinates for malformed
// input only.
type Index interface {
	Upsert(ctx context.Context, role domain.ActorRole, actorID string, lat, lng float64) error
	Remove(ctx context.Context, role domain.ActorRole, actorID string) error
	WithinRadius(ctx context.Context, role domain.ActorRole, center Point, radiusKm float64) ([]Candidate, error)
	NearestK(ctx context.Context, role domain.ActorRole, center Point, k int) ([]Candidate, error)
}

// MemoryIndex is an in-memory Index. Queries scan the role's actor set and
// sort by distance, which is fine for the actor-set sizes this engine serves.
type MemoryIndex struct {
	mu        sync.RWMutex
	positions map[domain.ActorRole]map[string]Point
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		positions: make(map[domain.ActorRole]map[string]Point),
	}
}

// Upsert stores or replaces an actor's position.
func (idx *MemoryIndex) Upsert(ctx context.Context, role domain.ActorRole, actorID string, lat, lng float64) error {
	if !ValidLatitude(lat) || !ValidLongitude(lng) {
		return ErrInvalidCoordinates
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	byID, ok := idx.positions[role]
	if !ok {
		byID = make(map[string]Point)
		idx.positions[role] = byID
	}
	byID[actorID] = Point{Lat: lat, Lng: lng}
	return nil
}

// Remove drops an actor's position. Removing an unknown actor is a no-op.
func (idx *MemoryIndex) Remove(ctx context.Context, role domain.ActorRole, actorID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if byID, ok := idx.positions[role]; ok {
		delete(byID, actorID)
	}
	return nil
}

// WithinRadius returns all actors of the role within radiusKm of center,
// closest first.
func (idx *MemoryIndex) WithinRadius(ctx context.Context, role domain.ActorRole, center Point, radiusKm float64) ([]Candidate, error) {
	if !ValidPoint(center) {
		return nil, ErrInvalidCoordinates
	}
	if radiusKm < 0 {
		return nil, ErrInvalidCoordinates
	}

	candidates := idx.scan(role, center)

	result := candidates[:0]
	for _, c := range candidates {
		if c.DistanceKm <= radiusKm {
			result = append(result, c)
		}
	}
	return result, nil
}

// NearestK returns up to k actors of the role nearest to center, closest first.
func (idx *MemoryIndex) NearestK(ctx context.Context, role domain.ActorRole, center Point, k int) ([]Candidate, error) {
	if !ValidPoint(center) {
		return nil, ErrInvalidCoordinates
	}
	if k < 1 {
		return nil, ErrInvalidCoordinates
	}

	candidates := idx.scan(role, center)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// scan snapshots the role's positions sorted by ascending distance from
// center, with actor id as the stable tie-break.
func (idx *MemoryIndex) scan(role domain.ActorRole, center Point) []Candidate {
	idx.mu.RLock()
	byID := idx.positions[role]
	candidates := make([]Candidate, 0, len(byID))
	for id, p := range byID {
		candidates = append(candidates, Candidate{
			ActorID:    id,
			Role:       role,
			Lat:        p.Lat,
			Lng:        p.Lng,
			DistanceKm: HaversineKm(center, p),
		})
	}
	idx.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].ActorID < candidates[j].ActorID
	})
	return candidates
}

// Ensure MemoryIndex implements Index.
var _ Index = (*MemoryIndex)(nil)
