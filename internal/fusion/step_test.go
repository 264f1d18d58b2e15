package fusion

import "testing"

func TestStepDetector_CountsDebouncedPeaks(t *testing.T) {
	var d StepDetector

	// Two peaks 400 ms apart: both count.
	d.Sample(0, 0, 13.0, 1000)
	d.Sample(0, 0, 13.0, 1400)
	if d.Steps() != 2 {
		t.Errorf("steps = %d, want 2", d.Steps())
	}

	// A peak only 200 ms after the last counted one is debounced.
	d.Sample(0, 0, 13.0, 1600)
	if d.Steps() != 2 {
		t.Errorf("steps = %d after debounced peak, want 2", d.Steps())
	}

	// 350 ms exactly is allowed.
	d.Sample(0, 0, 13.0, 1750)
	if d.Steps() != 3 {
		t.Errorf("steps = %d, want 3", d.Steps())
	}
}

func TestStepDetector_MagnitudeIsVectorNorm(t *testing.T) {
	var d StepDetector
	// |(8, 6, 8)| = sqrt(164) ~ 12.8 > 12.5.
	d.Sample(8, 6, 8, 1000)
	if d.Steps() != 1 {
		t.Errorf("steps = %d, want 1 for magnitude ~12.8", d.Steps())
	}

	var still StepDetector
	// |(0, 0, 9.81)| is resting gravity; no step, no motion.
	still.Sample(0, 0, 9.81, 1000)
	if still.Steps() != 0 {
		t.Errorf("steps = %d at rest, want 0", still.Steps())
	}
	if _, ok := still.LastMotionMs(); ok {
		t.Error("motion recorded at rest")
	}
}

func TestStepDetector_MotionThresholdIsLooserThanStepThreshold(t *testing.T) {
	var d StepDetector

	// 12.3 sits between the motion (12.2) and step (12.5) thresholds.
	d.Sample(0, 0, 12.3, 5000)
	if d.Steps() != 0 {
		t.Errorf("steps = %d, want 0 below the step threshold", d.Steps())
	}
	ms, ok := d.LastMotionMs()
	if !ok || ms != 5000 {
		t.Errorf("LastMotionMs = %v, %v, want 5000, true", ms, ok)
	}
}

func TestStepDetector_MovingWithin(t *testing.T) {
	var d StepDetector
	d.Sample(0, 0, 12.3, 5000)

	if !d.MovingWithin(3000, 6000) {
		t.Error("motion 1 s ago not reported within a 3 s window")
	}
	if d.MovingWithin(3000, 9000) {
		t.Error("motion 4 s ago reported within a 3 s window")
	}
	var idle StepDetector
	if idle.MovingWithin(3000, 1000) {
		t.Error("motion reported with no samples seen")
	}
}

func TestStepDetector_Reset(t *testing.T) {
	var d StepDetector
	d.Sample(0, 0, 13.0, 1000)
	d.Reset()

	if d.Steps() != 0 {
		t.Errorf("steps = %d after Reset, want 0", d.Steps())
	}
	if _, ok := d.LastMotionMs(); ok {
		t.Error("motion timestamp survived Reset")
	}
}
