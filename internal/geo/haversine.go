package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm is the spherical earth radius used for great-circle distance.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinates is returned for out-of-range latitude or longitude.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a position on the sphere.
type Point struct {
	Lat float64
	Lng float64
}

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is within [-180, 180].
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// ValidPoint reports whether both coordinates are in range.
func ValidPoint(p Point) bool {
	return ValidLatitude(p.Lat) && ValidLongitude(p.Lng)
}

// HaversineKm returns the great-circle distance between two points in
// kilometers. This is a proximity proxy, not road distance.
func HaversineKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
