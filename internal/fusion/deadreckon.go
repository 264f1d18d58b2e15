package fusion

import (
	"math"

	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
)

const (
	// DefaultStrideLengthMeters is the assumed distance per counted step.
	// Deliberately uncalibrated per user or terrain; it is a configurable
	// heuristic, not a measured quantity.
	DefaultStrideLengthMeters = 0.76

	// degradedAccuracyMeters is the reported accuracy beyond which dead
	// reckoning takes over from the raw fix.
	degradedAccuracyMeters = 5.0

	// minStepDistanceMeters is the smallest step-derived displacement worth
	// projecting.
	minStepDistanceMeters = 0.2

	// minSpeedMps is the smallest reported speed worth projecting.
	minSpeedMps = 0.2

	stepAccuracyFloorMeters  = 8.0
	speedAccuracyFloorMeters = 6.0

	// Smoothing weight bounds for the raw-fix fallback.
	smoothingAccuracyScale = 12.0
	minSmoothingWeight     = 0.25
	maxSmoothingWeight     = 0.85
)

// MeasurementSource records which path produced a fused measurement.
type MeasurementSource string

const (
	SourceGPS      MeasurementSource = "gps"
	SourceSteps    MeasurementSource = "steps"
	SourceSpeed    MeasurementSource = "speed"
	SourceSmoothed MeasurementSource = "smoothed"
)

// Measurement is what the projector hands the Kalman stage: a position and
// the accuracy it should be trusted at. Projection never replaces the
// Kalman update; fusion is always the final stage.
type Measurement struct {
	Point          geo.Point
	AccuracyMeters float64
	Source         MeasurementSource
}

// Projector derives a measurement from a degraded fix using dead reckoning.
type Projector struct {
	// StrideLengthMeters is the distance assumed per counted step; zero
	// falls back to DefaultStrideLengthMeters.
	StrideLengthMeters float64
}

func (p *Projector) stride() float64 {
	if p.StrideLengthMeters > 0 {
		return p.StrideLengthMeters
	}
	return DefaultStrideLengthMeters
}

// Measure chooses the measurement for one fix. last is the previous fused
// point, stepsSinceFix the pedometer delta since that point was committed,
// and elapsedMs the time since the previous fix.
//
// A fix at or under the degraded-accuracy threshold is used as-is. Past the
// threshold, with a heading available, the preference order is step-derived
// displacement, then speed x elapsed time, then accuracy-weighted smoothing
// of the raw fix toward the last point.
func (p *Projector) Measure(last geo.Point, fix sensor.Fix, headingDeg float64, haveHeading bool, stepsSinceFix uint64, elapsedMs uint64) Measurement {
	if fix.AccuracyMeters <= degradedAccuracyMeters || !haveHeading {
		return Measurement{Point: fix.Point, AccuracyMeters: fix.AccuracyMeters, Source: SourceGPS}
	}

	if stepDist := float64(stepsSinceFix) * p.stride(); stepDist > minStepDistanceMeters {
		return Measurement{
			Point:          geo.DestinationPoint(last, stepDist, headingDeg),
			AccuracyMeters: math.Max(fix.AccuracyMeters, stepAccuracyFloorMeters),
			Source:         SourceSteps,
		}
	}

	if fix.SpeedMps != nil && *fix.SpeedMps > minSpeedMps && elapsedMs > 0 {
		dist := *fix.SpeedMps * float64(elapsedMs) / 1000.0
		return Measurement{
			Point:          geo.DestinationPoint(last, dist, headingDeg),
			AccuracyMeters: math.Max(fix.AccuracyMeters, speedAccuracyFloorMeters),
			Source:         SourceSpeed,
		}
	}

	w := clamp(1-fix.AccuracyMeters/smoothingAccuracyScale, minSmoothingWeight, maxSmoothingWeight)
	smoothed := geo.Point{
		Lat: last.Lat + w*(fix.Point.Lat-last.Lat),
		Lng: last.Lng + w*(fix.Point.Lng-last.Lng),
	}
	return Measurement{Point: smoothed, AccuracyMeters: fix.AccuracyMeters, Source: SourceSmoothed}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
