package geo

import "math"

// PolygonAreaSquareMeters computes the area enclosed by a closed ring using
// the shoelace formula over the local-plane projection. The first point is
// the projection origin, so the small-span caveat of ProjectXY applies.
// Fewer than 3 distinct points enclose nothing and return 0.
func PolygonAreaSquareMeters(ring []Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	origin := ring[0]

	var sum float64
	for i := range ring {
		x1, y1 := ProjectXY(ring[i], origin)
		x2, y2 := ProjectXY(ring[(i+1)%len(ring)], origin)
		sum += x1*y2 - x2*y1
	}
	return math.Abs(sum) / 2
}
