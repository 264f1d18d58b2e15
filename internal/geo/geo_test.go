package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters_EquatorAdjacentLongitudeFraction(t *testing.T) {
	// One hundredth of a longitude degree at Nairobi's latitude is a touch
	// over 1.1 km; the published figure is ~1111 m.
	a := Point{Lat: -1.2921, Lng: 36.8219}
	b := Point{Lat: -1.2921, Lng: 36.8319}

	got := DistanceMeters(a, b)
	if math.Abs(got-1111) > 5 {
		t.Errorf("DistanceMeters = %.2f m, want 1111 +/- 5 m", got)
	}
}

func TestDistanceMeters_ZeroForIdenticalPoints(t *testing.T) {
	p := Point{Lat: -1.0, Lng: 36.0}
	if d := DistanceMeters(p, p); d != 0 {
		t.Errorf("DistanceMeters(p, p) = %v, want 0", d)
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := Point{Lat: -1.28, Lng: 36.81}
	b := Point{Lat: -1.31, Lng: 36.84}
	if ab, ba := DistanceMeters(a, b), DistanceMeters(b, a); math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestProjectXY(t *testing.T) {
	origin := Point{Lat: -1.0, Lng: 36.0}

	tests := []struct {
		name  string
		point Point
		wantX float64
		wantY float64
		tol   float64
	}{
		{
			name:  "origin maps to zero",
			point: origin,
			wantX: 0, wantY: 0, tol: 1e-9,
		},
		{
			name:  "north offset is pure y",
			point: Point{Lat: -0.999, Lng: 36.0},
			wantX: 0, wantY: 111.19, tol: 0.1,
		},
		{
			name:  "east offset is pure x",
			point: Point{Lat: -1.0, Lng: 36.001},
			wantX: 111.18, wantY: 0, tol: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ProjectXY(tt.point, origin)
			if math.Abs(x-tt.wantX) > tt.tol || math.Abs(y-tt.wantY) > tt.tol {
				t.Errorf("ProjectXY = (%.3f, %.3f), want (%.3f, %.3f)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestDestinationPoint_RoundTripsDistance(t *testing.T) {
	origin := Point{Lat: -1.2921, Lng: 36.8219}

	for _, bearing := range []float64{0, 45, 90, 135, 180, 270, 359} {
		dest := DestinationPoint(origin, 50, bearing)
		if d := DistanceMeters(origin, dest); math.Abs(d-50) > 0.01 {
			t.Errorf("bearing %v: destination is %.4f m away, want 50 m", bearing, d)
		}
	}
}

func TestDestinationPoint_NorthIncreasesLatitude(t *testing.T) {
	origin := Point{Lat: -1.0, Lng: 36.0}
	dest := DestinationPoint(origin, 100, 0)
	if dest.Lat <= origin.Lat {
		t.Errorf("travelling north should increase latitude: %v -> %v", origin.Lat, dest.Lat)
	}
	if math.Abs(dest.Lng-origin.Lng) > 1e-9 {
		t.Errorf("travelling north should not change longitude: %v -> %v", origin.Lng, dest.Lng)
	}
}

func TestBearingDeg(t *testing.T) {
	origin := Point{Lat: -1.0, Lng: 36.0}

	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"due north", Point{Lat: -0.99, Lng: 36.0}, 0},
		{"due east", Point{Lat: -1.0, Lng: 36.01}, 90},
		{"due south", Point{Lat: -1.01, Lng: 36.0}, 180},
		{"due west", Point{Lat: -1.0, Lng: 35.99}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDeg(origin, tt.to)
			if math.Abs(got-tt.want) > 0.2 {
				t.Errorf("BearingDeg = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestMetersPerDegreeLng_PoleGuard(t *testing.T) {
	// cos(90) underflows to ~0; the guard must substitute a factor of 1
	// rather than return a zero divisor for downstream conversions.
	if v := MetersPerDegreeLng(90); v <= 0 {
		t.Errorf("MetersPerDegreeLng(90) = %v, want positive fallback", v)
	}
	// At the equator one degree of longitude is one degree of latitude.
	if eq, lat := MetersPerDegreeLng(0), MetersPerDegreeLat(); math.Abs(eq-lat) > 1e-6 {
		t.Errorf("equator lng degree = %v, want %v", eq, lat)
	}
}
