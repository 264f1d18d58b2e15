package survey

import (
	"github.com/google/uuid"

	"github.com/Imbaya/shamba-sub000/internal/config"
	"github.com/Imbaya/shamba-sub000/internal/fusion"
	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
)

// TrackingSession captures one parcel boundary as a continuous walk. Fixes
// flow through anchor lock, dead-reckoning measurement selection, and the
// position filter before joining the raw path; the clean path is recomputed
// on every acceptance. All methods must be called from a single goroutine,
// matching the one-consumer-per-session delivery loop.
type TrackingSession struct {
	id       string
	parcelID string
	cfg      *config.TuningConfig

	state     SessionState
	anchor    *AnchorLock
	filter    *fusion.PositionFilter
	steps     *fusion.StepDetector
	projector fusion.Projector

	raw   Path
	clean []geo.Point

	stepBaseline   uint64
	lastFusedMs    uint64
	lastHeadingDeg float64
	haveHeading    bool
}

// NewTrackingSession returns an idle session for one parcel. A nil cfg uses
// the built-in tuning defaults.
func NewTrackingSession(parcelID string, cfg *config.TuningConfig) *TrackingSession {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &TrackingSession{
		parcelID: parcelID,
		cfg:      cfg,
		state:    StateIdle,
		anchor:   NewAnchorLock(cfg.GetAnchorAccuracyGateMeters(), cfg.GetAnchorWindow()),
		filter:   fusion.NewPositionFilter(),
		steps:    &fusion.StepDetector{},
		projector: fusion.Projector{
			StrideLengthMeters: cfg.GetStrideLengthMeters(),
		},
	}
}

// ID returns the session id assigned by the most recent Start.
func (s *TrackingSession) ID() string { return s.id }

// ParcelID returns the parcel this session captures.
func (s *TrackingSession) ParcelID() string { return s.parcelID }

// State returns the session lifecycle state.
func (s *TrackingSession) State() SessionState { return s.state }

// AnchorState returns the anchor lock status.
func (s *TrackingSession) AnchorState() AnchorState { return s.anchor.State() }

// Anchor returns the locked anchor point.
func (s *TrackingSession) Anchor() (geo.Point, bool) { return s.anchor.Point() }

// RawPath returns a copy of the accepted fused points.
func (s *TrackingSession) RawPath() []geo.Point { return s.raw.Points() }

// CleanPath returns a copy of the current simplified path.
func (s *TrackingSession) CleanPath() []geo.Point {
	out := make([]geo.Point, len(s.clean))
	copy(out, s.clean)
	return out
}

// Start resets all capture state and begins anchor locking. A session that
// previously stopped can be started again for a fresh capture.
func (s *TrackingSession) Start() error {
	if s.state == StateAnchorLocking || s.state == StateTracking {
		return ErrAlreadyStarted
	}
	s.id = uuid.NewString()
	s.anchor.Reset()
	s.filter.Reset()
	s.steps.Reset()
	s.raw.Reset()
	s.clean = nil
	s.stepBaseline = 0
	s.lastFusedMs = 0
	s.haveHeading = false
	s.state = StateAnchorLocking
	return nil
}

// OnMotion feeds one accelerometer sample to the step detector.
func (s *TrackingSession) OnMotion(m sensor.MotionSample) {
	if s.state == StateIdle || s.state == StateStopped {
		return
	}
	s.steps.Sample(m.X, m.Y, m.Z, m.TimestampMs)
}

// OnHeading caches a compass heading for fixes that arrive without one.
func (s *TrackingSession) OnHeading(deg float64) {
	s.lastHeadingDeg = deg
	s.haveHeading = true
}

// OnFix processes one GPS fix and reports what became of it.
func (s *TrackingSession) OnFix(f sensor.Fix) FixStatus {
	status := FixStatus{Outcome: OutcomeIgnored, AccuracyMeters: f.AccuracyMeters}
	switch s.state {
	case StateAnchorLocking:
		return s.onLockingFix(f, status)
	case StateTracking:
		return s.onTrackingFix(f, status)
	default:
		return status
	}
}

func (s *TrackingSession) onLockingFix(f sensor.Fix, status FixStatus) FixStatus {
	if s.anchor.Observe(f) {
		point, _ := s.anchor.Point()
		s.filter.Seed(point, f.TimestampMs)
		s.raw.Append(point)
		s.recomputeClean()
		s.stepBaseline = s.steps.Steps()
		s.lastFusedMs = f.TimestampMs
		s.state = StateTracking
		status.Outcome = OutcomeAnchorLocked
		return status
	}
	if s.anchor.SampleCount() > 0 {
		status.Outcome = OutcomeAveraging
	} else {
		status.Outcome = OutcomeWaitingForAccuracy
	}
	status.AnchorSamples = s.anchor.SampleCount()
	return status
}

func (s *TrackingSession) onTrackingFix(f sensor.Fix, status FixStatus) FixStatus {
	heading := s.lastHeadingDeg
	haveHeading := s.haveHeading
	if f.HeadingDeg != nil {
		heading = *f.HeadingDeg
		haveHeading = true
	}

	last, _ := s.filter.Estimate()
	stepsSinceFix := s.steps.Steps() - s.stepBaseline
	elapsedMs := f.TimestampMs - s.lastFusedMs

	m := s.projector.Measure(last, f, heading, haveHeading, stepsSinceFix, elapsedMs)
	fused := s.filter.Update(m.Point, m.AccuracyMeters, f.TimestampMs)

	s.stepBaseline = s.steps.Steps()
	s.lastFusedMs = f.TimestampMs
	status.Source = string(m.Source)
	status.ElapsedMs = elapsedMs

	lastAccepted, _ := s.raw.Last()
	if geo.DistanceMeters(fused, lastAccepted) <= s.cfg.GetMinPointSpacingMeters() {
		status.Outcome = OutcomeBelowSpacing
		return status
	}
	s.raw.Append(fused)
	s.recomputeClean()
	status.Outcome = OutcomeAccepted
	return status
}

// Stop finalizes the capture. In Tracking it closes the loop and returns
// the finished polygon; stopping before the anchor locked discards the
// attempt and reports ErrAnchorNotLocked so the caller can retry.
func (s *TrackingSession) Stop() ([]geo.Point, error) {
	switch s.state {
	case StateTracking:
		s.clean = geo.CloseLoop(geo.Simplify(s.raw.Points(), s.cfg.GetSimplifyEpsilonMeters()))
		s.state = StateStopped
		return s.CleanPath(), nil
	case StateAnchorLocking:
		s.state = StateIdle
		return nil, ErrAnchorNotLocked
	default:
		return nil, ErrNotStarted
	}
}

func (s *TrackingSession) recomputeClean() {
	s.clean = geo.Simplify(s.raw.Points(), s.cfg.GetSimplifyEpsilonMeters())
}
