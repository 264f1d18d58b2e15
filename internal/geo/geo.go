// Package geo provides the small amount of spherical geometry the capture
// engine needs: haversine distances, a local-plane projection, and the
// direct (destination point) solution. All functions are total over their
// documented input domain and keep no state.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used for haversine math.
	EarthRadiusMeters = 6371000.0

	// WGS84SemiMajorMeters is the WGS-84 semi-major axis, used where the
	// differential corrector converts degree deltas to metric offsets.
	WGS84SemiMajorMeters = 6378137.0
)

// Point is a WGS-84 coordinate in decimal degrees. No datum transform is
// performed anywhere in this module; callers are assumed to feed
// consistently-referenced coordinates.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	dLat := Radians(b.Lat - a.Lat)
	dLng := Radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(Radians(a.Lat))*math.Cos(Radians(b.Lat))*sinLng*sinLng
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ProjectXY maps p into a local tangent plane centred on origin using the
// equirectangular approximation: x east, y north, both in meters. The
// approximation is only good for sub-kilometre spans, which covers any
// parcel this engine is asked to survey.
func ProjectXY(p, origin Point) (x, y float64) {
	x = EarthRadiusMeters * Radians(p.Lng-origin.Lng) * math.Cos(Radians(origin.Lat))
	y = EarthRadiusMeters * Radians(p.Lat-origin.Lat)
	return x, y
}

// BearingDeg returns the initial great-circle bearing from a to b in
// degrees clockwise from true north, normalised to [0, 360).
func BearingDeg(a, b Point) float64 {
	lat1 := Radians(a.Lat)
	lat2 := Radians(b.Lat)
	dLng := Radians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Mod(Degrees(math.Atan2(y, x))+360, 360)
}

// DestinationPoint returns the point reached by travelling distanceMeters
// from origin along the given bearing (degrees clockwise from north),
// using the standard spherical direct solution.
func DestinationPoint(origin Point, distanceMeters, bearingDeg float64) Point {
	delta := distanceMeters / EarthRadiusMeters
	theta := Radians(bearingDeg)
	lat1 := Radians(origin.Lat)
	lng1 := Radians(origin.Lng)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Point{Lat: Degrees(lat2), Lng: Degrees(lng2)}
}

// MetersPerDegreeLat is the metric length of one degree of latitude on the
// haversine sphere.
func MetersPerDegreeLat() float64 {
	return EarthRadiusMeters * math.Pi / 180.0
}

// MetersPerDegreeLng is the metric length of one degree of longitude at the
// given latitude. Near the poles the cosine term collapses; a factor of 1
// is substituted so callers never divide by zero.
func MetersPerDegreeLng(latDeg float64) float64 {
	c := math.Cos(Radians(latDeg))
	if math.Abs(c) < 1e-9 {
		c = 1
	}
	return EarthRadiusMeters * math.Pi / 180.0 * c
}
