// Package fusion contains the per-fix estimation stages of the capture
// engine: a scalar Kalman filter per coordinate axis, an approximate
// pedometer, and the dead-reckoning projector that manufactures a usable
// measurement when GPS accuracy degrades.
package fusion

import (
	"math"

	"github.com/Imbaya/shamba-sub000/internal/geo"
)

const (
	// MaxWalkingSpeedMps is the assumed ceiling on operator movement,
	// used to derive process noise from elapsed time.
	MaxWalkingSpeedMps = 1.5

	// minMeasurementNoiseMeters floors the reported GPS accuracy so a
	// wildly optimistic receiver cannot collapse the gain.
	minMeasurementNoiseMeters = 1.0

	// minProcessNoiseMeters floors the per-update process drift.
	minProcessNoiseMeters = 0.5

	// seedVariance is the initial estimate variance (degrees²) after
	// seeding; deliberately large so the first updates track measurements
	// closely.
	seedVariance = 1.0
)

// axisState is a one-dimensional Kalman estimate in degrees.
type axisState struct {
	estimate float64
	variance float64
}

func (a *axisState) update(measurement, processVarDeg2, measureVarDeg2 float64) {
	p := a.variance + processVarDeg2
	k := p / (p + measureVarDeg2)
	a.estimate += k * (measurement - a.estimate)
	a.variance = (1 - k) * p
}

// PositionFilter fuses noisy position measurements with independent scalar
// Kalman filters for latitude and longitude. There is no cross-axis
// covariance; at walking speeds over parcel-sized areas the axes are close
// enough to independent.
type PositionFilter struct {
	lat, lng     axisState
	seeded       bool
	lastUpdateMs uint64
}

// NewPositionFilter returns an unseeded filter.
func NewPositionFilter() *PositionFilter {
	return &PositionFilter{}
}

// Seed initialises both axes at p with the seed variance. Used when an
// anchor lock supplies a trusted starting point.
func (f *PositionFilter) Seed(p geo.Point, atMs uint64) {
	f.lat = axisState{estimate: p.Lat, variance: seedVariance}
	f.lng = axisState{estimate: p.Lng, variance: seedVariance}
	f.seeded = true
	f.lastUpdateMs = atMs
}

// Reset discards all filter state. Called whenever a session restarts or an
// anchor re-locks.
func (f *PositionFilter) Reset() {
	*f = PositionFilter{}
}

// Seeded reports whether the filter has a current estimate.
func (f *PositionFilter) Seeded() bool {
	return f.seeded
}

// Estimate returns the current fused position.
func (f *PositionFilter) Estimate() (geo.Point, bool) {
	if !f.seeded {
		return geo.Point{}, false
	}
	return geo.Point{Lat: f.lat.estimate, Lng: f.lng.estimate}, true
}

// Variances returns the current per-axis estimate variances in degrees².
func (f *PositionFilter) Variances() (latVar, lngVar float64) {
	return f.lat.variance, f.lng.variance
}

// Update fuses one measurement and returns the new estimate. accuracyMeters
// is the measurement's reported (or synthesised) accuracy; atMs drives the
// process-noise growth. An unseeded filter adopts the measurement directly.
func (f *PositionFilter) Update(measured geo.Point, accuracyMeters float64, atMs uint64) geo.Point {
	if !f.seeded {
		f.Seed(measured, atMs)
		return measured
	}

	var elapsedSec float64
	if atMs > f.lastUpdateMs {
		elapsedSec = float64(atMs-f.lastUpdateMs) / 1000.0
	}
	f.lastUpdateMs = atMs

	processMeters := math.Max(minProcessNoiseMeters, elapsedSec*MaxWalkingSpeedMps)
	measureMeters := math.Max(minMeasurementNoiseMeters, accuracyMeters)

	latScale := geo.MetersPerDegreeLat()
	lngScale := geo.MetersPerDegreeLng(f.lat.estimate)

	f.lat.update(measured.Lat, sq(processMeters/latScale), sq(measureMeters/latScale))
	f.lng.update(measured.Lng, sq(processMeters/lngScale), sq(measureMeters/lngScale))

	return geo.Point{Lat: f.lat.estimate, Lng: f.lng.estimate}
}

func sq(v float64) float64 { return v * v }
