package fare

import "math"

// samePointTolerance is the per-axis delta, in degrees, under which two
// points are treated as the same place.
const samePointTolerance = 0.0001

// minDistanceKm is the floor for every route estimate.
const minDistanceKm = 0.1

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the coordinate is the [0,0] placeholder.
func (p LatLng) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// SamePoint reports whether a and b are within tolerance on both axes.
func SamePoint(a, b LatLng) bool {
	return math.Abs(a.Lat-b.Lat) < samePointTolerance && math.Abs(a.Lng-b.Lng) < samePointTolerance
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b LatLng) float64 {
	const earthRadiusKm = 6371.0

	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
