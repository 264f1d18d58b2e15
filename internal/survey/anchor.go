package survey

import (
	"time"

	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
	"github.com/Imbaya/shamba-sub000/internal/telemetry"
)

// AnchorLock averages a window of high-accuracy stationary fixes into a
// single reference point. It runs inside a tracking session to seed the
// position filter, and also stands alone when a reference device parks on a
// known landmark to feed differential correction.
type AnchorLock struct {
	gateMeters float64
	windowMs   uint64

	state         AnchorState
	samples       []geo.Point
	windowStartMs uint64
	point         geo.Point
}

// NewAnchorLock returns an unlocked anchor with the given accuracy gate and
// averaging window.
func NewAnchorLock(gateMeters float64, window time.Duration) *AnchorLock {
	return &AnchorLock{
		gateMeters: gateMeters,
		windowMs:   uint64(window.Milliseconds()),
		state:      AnchorUnlocked,
	}
}

// State returns the current lock status.
func (a *AnchorLock) State() AnchorState { return a.state }

// SampleCount returns how many fixes the in-progress window holds.
func (a *AnchorLock) SampleCount() int { return len(a.samples) }

// Point returns the locked anchor point.
func (a *AnchorLock) Point() (geo.Point, bool) {
	if a.state != AnchorLocked {
		return geo.Point{}, false
	}
	return a.point, true
}

// Observe consumes one fix and reports whether it completed the lock.
// A fix over the accuracy gate while averaging discards the collected
// samples but stays in Averaging; the window restarts on the next fix that
// passes the gate.
func (a *AnchorLock) Observe(f sensor.Fix) (locked bool) {
	if a.state == AnchorLocked {
		return false
	}
	if f.AccuracyMeters > a.gateMeters {
		if a.state == AnchorAveraging {
			a.samples = nil
			a.windowStartMs = 0
		}
		return false
	}

	if a.state == AnchorUnlocked {
		a.state = AnchorAveraging
	}
	if a.windowStartMs == 0 {
		a.windowStartMs = f.TimestampMs
	}
	a.samples = append(a.samples, f.Point)

	if f.TimestampMs-a.windowStartMs >= a.windowMs {
		a.point = centroid(a.samples)
		a.samples = nil
		a.windowStartMs = 0
		a.state = AnchorLocked
		return true
	}
	return false
}

// Reset returns the anchor to Unlocked and discards any progress.
func (a *AnchorLock) Reset() {
	a.state = AnchorUnlocked
	a.samples = nil
	a.windowStartMs = 0
	a.point = geo.Point{}
}

// ReferenceTelemetry builds one differential-correction record from a
// reference device whose anchor locked while parked on a known landmark.
func ReferenceTelemetry(sessionID string, truth, measured geo.Point, accuracyMeters float64, nowMs uint64) telemetry.AnchorTelemetry {
	d := telemetry.ComputeDelta(truth, measured)
	return telemetry.AnchorTelemetry{
		SessionID:        sessionID,
		Measured:         measured,
		Truth:            truth,
		DeltaNorthMeters: d.NorthMeters,
		DeltaEastMeters:  d.EastMeters,
		AccuracyMeters:   accuracyMeters,
		TimestampMs:      nowMs,
	}
}

func centroid(points []geo.Point) geo.Point {
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return geo.Point{Lat: lat / n, Lng: lng / n}
}
