package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"foodbridge/internal/domain"
	"foodbridge/internal/geo"
)

// nearestKRadiusKm bounds nearest-k queries; half the earth's circumference
// reaches any point on the sphere.
const nearestKRadiusKm = 21000.0

// GeoIndex is a Redis-backed geo.Index using one GEO key per actor role.
type GeoIndex struct {
	client *redis.Client
}

// NewGeoIndex creates a new Redis-backed GeoIndex.
func NewGeoIndex(client *redis.Client) *GeoIndex {
	return &GeoIndex{client: client}
}

func roleKey(role domain.ActorRole) string {
	return fmt.Sprintf("actors:locations:%s", role)
}

// Upsert stores an actor's position using GEOADD.
func (s *GeoIndex) Upsert(ctx context.Context, role domain.ActorRole, actorID string, lat, lng float64) error {
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return geo.ErrInvalidCoordinates
	}

	return s.client.GeoAdd(ctx, roleKey(role), &redis.GeoLocation{
		Name:      actorID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// Remove removes an actor from the role's geo set.
func (s *GeoIndex) Remove(ctx context.Context, role domain.ActorRole, actorID string) error {
	return s.client.ZRem(ctx, roleKey(role), actorID).Err()
}

// WithinRadius returns actors of the role within radiusKm of center, sorted
// by ascending distance with coordinates and distance attached.
func (s *GeoIndex) WithinRadius(ctx context.Context, role domain.ActorRole, center geo.Point, radiusKm float64) ([]geo.Candidate, error) {
	if !geo.ValidPoint(center) || radiusKm < 0 {
		return nil, geo.ErrInvalidCoordinates
	}
	return s.search(ctx, role, center, radiusKm, 0)
}

// NearestK returns up to k actors of the role nearest to center.
func (s *GeoIndex) NearestK(ctx context.Context, role domain.ActorRole, center geo.Point, k int) ([]geo.Candidate, error) {
	if !geo.ValidPoint(center) || k < 1 {
		return nil, geo.ErrInvalidCoordinates
	}
	return s.search(ctx, role, center, nearestKRadiusKm, k)
}

func (s *GeoIndex) search(ctx context.Context, role domain.ActorRole, center geo.Point, radiusKm float64, count int) ([]geo.Candidate, error) {
	results, err := s.client.GeoRadius(ctx, roleKey(role), center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     count,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	candidates := make([]geo.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, geo.Candidate{
			ActorID:    r.Name,
			Role:       role,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}

	return candidates, nil
}

// Ensure GeoIndex implements geo.Index.
var _ geo.Index = (*GeoIndex)(nil)
