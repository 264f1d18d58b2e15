package fusion

import "math"

const (
	// StepMagnitudeThreshold is the acceleration magnitude (m/s², gravity
	// included) above which a debounced step is counted.
	StepMagnitudeThreshold = 12.5

	// MotionMagnitudeThreshold is the looser magnitude that merely refreshes
	// the last-motion timestamp, gating stillness-dependent operations.
	MotionMagnitudeThreshold = 12.2

	// StepDebounceMs is the minimum spacing between counted steps.
	StepDebounceMs = 350
)

// StepDetector is an approximate pedometer: an accelerometer-magnitude peak
// counter with a fixed debounce. It makes no attempt at false-step
// correction or gait classification.
type StepDetector struct {
	steps        uint64
	lastStepMs   uint64
	lastMotionMs uint64
	sawStep      bool
	sawMotion    bool
}

// Sample consumes one 3-axis acceleration reading.
func (d *StepDetector) Sample(x, y, z float64, atMs uint64) {
	m := math.Sqrt(x*x + y*y + z*z)

	if m > MotionMagnitudeThreshold {
		d.lastMotionMs = atMs
		d.sawMotion = true
	}

	if m > StepMagnitudeThreshold {
		if !d.sawStep || atMs-d.lastStepMs >= StepDebounceMs {
			d.steps++
			d.lastStepMs = atMs
			d.sawStep = true
		}
	}
}

// Steps returns the monotonically increasing step count.
func (d *StepDetector) Steps() uint64 {
	return d.steps
}

// LastMotionMs returns the timestamp of the most recent above-threshold
// motion, if any has been seen.
func (d *StepDetector) LastMotionMs() (uint64, bool) {
	return d.lastMotionMs, d.sawMotion
}

// MovingWithin reports whether motion was seen within windowMs of nowMs.
func (d *StepDetector) MovingWithin(windowMs, nowMs uint64) bool {
	if !d.sawMotion {
		return false
	}
	return nowMs-d.lastMotionMs <= windowMs
}

// Reset clears all pedometer state.
func (d *StepDetector) Reset() {
	*d = StepDetector{}
}
