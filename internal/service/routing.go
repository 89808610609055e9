package service

import (
	"context"
	"time"

	"foodbridge/internal/geo"
)

// TravelMode is the mode of travel for a routing estimate.
type TravelMode string

const (
	TravelModeDriving TravelMode = "DRIVING"
	TravelModeCycling TravelMode = "CYCLING"
	TravelModeWalking TravelMode = "WALKING"
)

// TravelEstimate is a point-to-point travel estimate from a routing oracle.
type TravelEstimate struct {
	DistanceKm float64
	Duration   time.Duration
}

// RoutingOracle provides travel distance and time between two points. The
// engine never depends on it for correctness: any error or timeout makes the
// ranker fall back to great-circle distance.
type RoutingOracle interface {
	Travel(ctx context.Context, from, to geo.Point, mode TravelMode) (TravelEstimate, error)
}

// GreatCircleOracle estimates travel from great-circle distance and a flat
// average speed. It is the default oracle and the fallback semantics in one.
type GreatCircleOracle struct {
	AvgSpeedKmh float64
}

// NewGreatCircleOracle creates an oracle assuming 30 km/h average travel.
func NewGreatCircleOracle() *GreatCircleOracle {
	return &GreatCircleOracle{AvgSpeedKmh: 30}
}

// Travel returns the haversine distance and the duration at average speed.
func (o *GreatCircleOracle) Travel(ctx context.Context, from, to geo.Point, mode TravelMode) (TravelEstimate, error) {
	distance := geo.HaversineKm(from, to)
	hours := distance / o.AvgSpeedKmh
	return TravelEstimate{
		DistanceKm: distance,
		Duration:   time.Duration(hours * float64(time.Hour)),
	}, nil
}

var _ RoutingOracle = (*GreatCircleOracle)(nil)
