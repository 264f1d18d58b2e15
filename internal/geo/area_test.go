package geo

import (
	"math"
	"testing"
)

func TestPolygonAreaSquareMeters(t *testing.T) {
	origin := Point{Lat: -1.2921, Lng: 36.8219}

	// A 100 m x 100 m square.
	square := []Point{
		origin,
		DestinationPoint(origin, 100, 90),
		DestinationPoint(DestinationPoint(origin, 100, 90), 100, 0),
		DestinationPoint(origin, 100, 0),
	}
	got := PolygonAreaSquareMeters(square)
	if math.Abs(got-10000) > 50 {
		t.Errorf("square area = %.1f m², want ~10000", got)
	}

	// An explicitly closed ring gives the same area.
	closed := append(append([]Point{}, square...), square[0])
	if d := math.Abs(PolygonAreaSquareMeters(closed) - got); d > 1 {
		t.Errorf("closed ring area differs from open ring by %.2f m²", d)
	}
}

func TestPolygonAreaSquareMeters_Degenerate(t *testing.T) {
	p := Point{Lat: -1, Lng: 36}
	if got := PolygonAreaSquareMeters(nil); got != 0 {
		t.Errorf("area of nil = %v, want 0", got)
	}
	if got := PolygonAreaSquareMeters([]Point{p, DestinationPoint(p, 10, 90)}); got != 0 {
		t.Errorf("area of a segment = %v, want 0", got)
	}
}
