package survey

import "github.com/Imbaya/shamba-sub000/internal/geo"

// Path is an append-only point sequence owned by one session. Reads hand
// out copies so a caller can never mutate committed points.
type Path struct {
	points []geo.Point
}

// Append adds a point to the end of the path.
func (p *Path) Append(pt geo.Point) {
	p.points = append(p.points, pt)
}

// Len returns the number of points.
func (p *Path) Len() int { return len(p.points) }

// Last returns the most recently appended point.
func (p *Path) Last() (geo.Point, bool) {
	if len(p.points) == 0 {
		return geo.Point{}, false
	}
	return p.points[len(p.points)-1], true
}

// Points returns a copy of the full sequence.
func (p *Path) Points() []geo.Point {
	out := make([]geo.Point, len(p.points))
	copy(out, p.points)
	return out
}

// Reset discards all points.
func (p *Path) Reset() { p.points = nil }
