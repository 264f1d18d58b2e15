package survey

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Imbaya/shamba-sub000/internal/config"
	"github.com/Imbaya/shamba-sub000/internal/fusion"
	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
	"github.com/Imbaya/shamba-sub000/internal/telemetry"
)

// SampleOutcome describes what a corner sampler did with one fix.
type SampleOutcome string

const (
	SampleAccepted         SampleOutcome = "accepted"
	SampleLowConfidence    SampleOutcome = "accepted_low_confidence"
	SampleRejectedMotion   SampleOutcome = "rejected_motion"
	SampleRejectedAccuracy SampleOutcome = "rejected_accuracy"
	SampleIgnored          SampleOutcome = "ignored"
)

// SampleStatus is per-fix feedback during a corner window.
type SampleStatus struct {
	Outcome SampleOutcome
	HRI     float64
}

// CornerResult is one surveyed parcel vertex. Failure is FailureNone on
// success; on failure the remaining fields describe the discarded window.
type CornerResult struct {
	Point             geo.Point
	ConfidencePct     float64
	LowConfidence     bool
	SampleCount       int
	ReceivedCount     int
	RejectedForMotion int
	HRI               float64
	Failure           FailureReason
}

// CornerSampler captures one boundary vertex at a time by averaging a timed
// batch of stationary fixes. The caller opens a window with Begin, feeds
// fixes and motion samples as they arrive, and fires WindowExpired when its
// timer lapses. A non-nil corrector applies differential correction to each
// accepted sample.
type CornerSampler struct {
	cfg       *config.TuningConfig
	corrector *telemetry.Corrector
	steps     *fusion.StepDetector

	active    bool
	startedMs uint64

	samples           []geo.Point
	lastAccuracy      float64
	receivedCount     int
	rejectedForMotion int
	lowConfidence     bool
	lastHRI           float64
}

// NewCornerSampler returns a sampler with no open window. corrector may be
// nil when no reference device is broadcasting.
func NewCornerSampler(cfg *config.TuningConfig, corrector *telemetry.Corrector) *CornerSampler {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &CornerSampler{
		cfg:       cfg,
		corrector: corrector,
		steps:     &fusion.StepDetector{},
	}
}

// Active reports whether a sampling window is open.
func (c *CornerSampler) Active() bool { return c.active }

// WindowDuration returns the configured sampling window length.
func (c *CornerSampler) WindowDuration() time.Duration { return c.cfg.GetCornerWindow() }

// OnMotion feeds one accelerometer sample. Motion seen here gates fix
// acceptance: the operator must have been still for the motion-gate
// duration before a fix counts.
func (c *CornerSampler) OnMotion(m sensor.MotionSample) {
	c.steps.Sample(m.X, m.Y, m.Z, m.TimestampMs)
}

// Begin opens a sampling window at nowMs.
func (c *CornerSampler) Begin(nowMs uint64) error {
	if c.active {
		return ErrWindowActive
	}
	c.active = true
	c.startedMs = nowMs
	c.samples = nil
	c.lastAccuracy = 0
	c.receivedCount = 0
	c.rejectedForMotion = 0
	c.lowConfidence = false
	c.lastHRI = 0
	return nil
}

// OnFix offers one fix to the open window.
func (c *CornerSampler) OnFix(f sensor.Fix) SampleStatus {
	windowMs := uint64(c.cfg.GetCornerWindow().Milliseconds())
	if !c.active || f.TimestampMs > c.startedMs+windowMs {
		return SampleStatus{Outcome: SampleIgnored}
	}
	c.receivedCount++

	gateMs := uint64(c.cfg.GetCornerMotionGate().Milliseconds())
	if c.steps.MovingWithin(gateMs, f.TimestampMs) {
		c.rejectedForMotion++
		return SampleStatus{Outcome: SampleRejectedMotion}
	}
	if f.AccuracyMeters > c.cfg.GetCornerRejectAccuracyMeters() {
		return SampleStatus{Outcome: SampleRejectedAccuracy}
	}

	c.lastHRI = c.computeHRI(f)
	point := f.Point
	if c.corrector != nil {
		point = c.corrector.Correct(point)
	}
	c.samples = append(c.samples, point)
	c.lastAccuracy = f.AccuracyMeters

	outcome := SampleAccepted
	if f.AccuracyMeters > c.cfg.GetCornerTargetAccuracyMeters() {
		c.lowConfidence = true
		outcome = SampleLowConfidence
	}
	return SampleStatus{Outcome: outcome, HRI: c.lastHRI}
}

// WindowExpired closes the window and averages the batch into a vertex.
// Failure reasons come back in the result, never as an error; the error
// return only reports protocol misuse (no open window).
func (c *CornerSampler) WindowExpired() (CornerResult, error) {
	if !c.active {
		return CornerResult{}, ErrNoWindow
	}
	c.active = false

	result := CornerResult{
		ReceivedCount:     c.receivedCount,
		RejectedForMotion: c.rejectedForMotion,
		LowConfidence:     c.lowConfidence,
		HRI:               c.lastHRI,
	}
	if len(c.samples) == 0 {
		if c.rejectedForMotion > 0 {
			result.Failure = FailureMotionDuringSampling
		} else {
			result.Failure = FailureInsufficientSamples
		}
		c.discardBatch()
		return result, nil
	}

	kept, distances := trimOutliers(c.samples, c.cfg.GetOutlierTrimFraction())
	if len(kept) == 0 {
		result.Failure = FailureNoiseRejected
		c.discardBatch()
		return result, nil
	}

	result.Point = centroid(kept)
	result.SampleCount = len(kept)
	result.ConfidencePct = confidence(c.lastAccuracy, c.cfg.GetCornerTargetAccuracyMeters(), distances)
	c.discardBatch()
	return result, nil
}

// Cancel discards the open window without producing a vertex.
func (c *CornerSampler) Cancel() {
	c.active = false
	c.discardBatch()
}

func (c *CornerSampler) discardBatch() {
	c.samples = nil
	c.receivedCount = 0
	c.rejectedForMotion = 0
	c.lowConfidence = false
}

// trimOutliers computes each sample's distance from the per-axis median
// point and keeps the n - floor(n*fraction) samples closest to it. The
// returned distances belong to the kept samples.
func trimOutliers(samples []geo.Point, fraction float64) (kept []geo.Point, distances []float64) {
	median := medianPoint(samples)

	type scored struct {
		point    geo.Point
		distance float64
	}
	all := make([]scored, len(samples))
	for i, p := range samples {
		all[i] = scored{point: p, distance: geo.DistanceMeters(p, median)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].distance < all[j].distance })

	keep := len(all) - int(float64(len(all))*fraction)
	if keep < 0 {
		keep = 0
	}
	kept = make([]geo.Point, 0, keep)
	distances = make([]float64, 0, keep)
	for _, s := range all[:keep] {
		kept = append(kept, s.point)
		distances = append(distances, s.distance)
	}
	return kept, distances
}

func medianPoint(samples []geo.Point) geo.Point {
	lats := make([]float64, len(samples))
	lngs := make([]float64, len(samples))
	for i, p := range samples {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}
	sort.Float64s(lats)
	sort.Float64s(lngs)
	return geo.Point{
		Lat: stat.Quantile(0.5, stat.Empirical, lats, nil),
		Lng: stat.Quantile(0.5, stat.Empirical, lngs, nil),
	}
}

// confidence scores a vertex from the batch's final reported accuracy and
// the dispersion of the surviving samples, clamped to [0, 100].
func confidence(accuracy, targetAccuracy float64, distances []float64) float64 {
	var stddev float64
	if len(distances) > 1 {
		stddev = stat.StdDev(distances, nil)
	}
	score := 100 - math.Max(0, accuracy-targetAccuracy)*8 - stddev*20
	return math.Max(0, math.Min(100, score))
}

// computeHRI scores one fix's horizontal reliability against the active
// reference telemetry. Without telemetry only the accuracy proxy applies.
func (c *CornerSampler) computeHRI(f sensor.Fix) float64 {
	hri := 100.0

	hdopProxy := math.Max(0.8, f.AccuracyMeters/2)
	hri -= math.Max(0, hdopProxy-1.5) * 10

	if c.corrector != nil {
		if latest, ok := c.corrector.Latest(); ok {
			hri -= math.Max(0, 120-float64(c.corrector.SampleCount())) * 0.25

			var lagSec float64
			if f.TimestampMs > latest.TimestampMs {
				lagSec = float64(f.TimestampMs-latest.TimestampMs) / 1000
			}
			hri -= math.Max(0, lagSec-5) * 0.3

			distKm := geo.DistanceMeters(f.Point, latest.Truth) / 1000
			hri -= math.Max(0, distKm-1) * 3
		}
	}
	return math.Max(0, math.Min(100, hri))
}
