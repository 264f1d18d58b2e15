package geo

import "math"

const (
	// DefaultSimplifyEpsilonMeters is the Douglas-Peucker tolerance used for
	// boundary polygons.
	DefaultSimplifyEpsilonMeters = 5.0

	// ClosedRingThresholdMeters is how close the endpoints of a path must be
	// for it to already count as a closed ring.
	ClosedRingThresholdMeters = 2.0
)

type planePoint struct {
	x, y float64
}

// Simplify runs Douglas-Peucker over the local-plane projection of pts with
// the given tolerance in meters. The first and last input points are always
// retained, and paths with fewer than three points pass through unchanged.
// The input slice is never mutated.
func Simplify(pts []Point, epsilonMeters float64) []Point {
	if len(pts) < 3 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}

	origin := pts[0]
	plane := make([]planePoint, len(pts))
	for i, p := range pts {
		x, y := ProjectXY(p, origin)
		plane[i] = planePoint{x: x, y: y}
	}

	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	simplifySegment(plane, 0, len(pts)-1, epsilonMeters, keep)

	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// simplifySegment marks interior points to keep between first and last. The
// farthest point from the chord is kept and both halves recursed whenever it
// lies more than epsilon off the chord.
func simplifySegment(plane []planePoint, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}

	maxDist := 0.0
	maxIdx := first
	for i := first + 1; i < last; i++ {
		d := perpendicularDistance(plane[i], plane[first], plane[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist > epsilon {
		keep[maxIdx] = true
		simplifySegment(plane, first, maxIdx, epsilon, keep)
		simplifySegment(plane, maxIdx, last, epsilon, keep)
	}
}

// perpendicularDistance is the distance from p to the line through a and b.
// When a and b coincide (a path that loops back exactly onto its start) the
// chord degenerates and the plain point distance is used instead.
func perpendicularDistance(p, a, b planePoint) float64 {
	dx := b.x - a.x
	dy := b.y - a.y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.x-a.x, p.y-a.y)
	}
	return math.Abs(dy*p.x-dx*p.y+b.x*a.y-b.y*a.x) / math.Hypot(dx, dy)
}

// CloseLoop guarantees a closed ring: if the endpoints of pts are already
// within ClosedRingThresholdMeters the path is returned as-is (copied);
// otherwise a copy of the first point is appended. Interior points are
// never touched, and paths shorter than three points pass through.
func CloseLoop(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	if len(pts) < 3 {
		return out
	}
	if DistanceMeters(pts[0], pts[len(pts)-1]) < ClosedRingThresholdMeters {
		return out
	}
	return append(out, pts[0])
}
