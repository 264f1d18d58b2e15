package survey

import (
	"testing"

	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
)

// lockAt drives a fresh-started session to Tracking with its anchor at p.
// The returned timestamp is where the fix stream left off.
func lockAt(t *testing.T, s *TrackingSession, p geo.Point) uint64 {
	t.Helper()
	s.OnFix(goodFix(p, 1000))
	status := s.OnFix(goodFix(p, 31000))
	if status.Outcome != OutcomeAnchorLocked {
		t.Fatalf("outcome = %q, want anchor_locked", status.Outcome)
	}
	if s.State() != StateTracking {
		t.Fatalf("state = %q after lock, want tracking", s.State())
	}
	return 31000
}

func TestTrackingSession_Lifecycle(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if s.State() != StateIdle {
		t.Fatalf("initial state = %q, want idle", s.State())
	}

	if status := s.OnFix(goodFix(geo.Point{Lat: -1, Lng: 36}, 500)); status.Outcome != OutcomeIgnored {
		t.Errorf("idle session outcome = %q, want ignored", status.Outcome)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != StateAnchorLocking {
		t.Errorf("state = %q after Start, want anchor_locking", s.State())
	}
	if s.ID() == "" {
		t.Error("no session id assigned by Start")
	}
	if err := s.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start error = %v, want ErrAlreadyStarted", err)
	}
}

func TestTrackingSession_AnchorSeedsFilterAtCentroid(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	fixes := []geo.Point{
		{Lat: -1.0, Lng: 36.0},
		{Lat: -1.00001, Lng: 36.00001},
		{Lat: -1.00002, Lng: 36.0},
	}
	if status := s.OnFix(goodFix(fixes[0], 1000)); status.Outcome != OutcomeAveraging {
		t.Errorf("outcome = %q, want averaging", status.Outcome)
	}
	s.OnFix(goodFix(fixes[1], 15000))
	status := s.OnFix(goodFix(fixes[2], 31000))
	if status.Outcome != OutcomeAnchorLocked {
		t.Fatalf("outcome = %q, want anchor_locked", status.Outcome)
	}

	want := geo.Point{
		Lat: (fixes[0].Lat + fixes[1].Lat + fixes[2].Lat) / 3,
		Lng: (fixes[0].Lng + fixes[1].Lng + fixes[2].Lng) / 3,
	}
	anchor, ok := s.Anchor()
	if !ok || anchor != want {
		t.Errorf("anchor = %+v, %v, want exact centroid %+v", anchor, ok, want)
	}
	raw := s.RawPath()
	if len(raw) != 1 || raw[0] != want {
		t.Errorf("raw path = %+v, want exactly the seeded centroid", raw)
	}
}

func TestTrackingSession_WaitingForAccuracyBeforeGate(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	status := s.OnFix(sensor.Fix{Point: geo.Point{Lat: -1, Lng: 36}, AccuracyMeters: 7.0, TimestampMs: 1000})
	if status.Outcome != OutcomeWaitingForAccuracy {
		t.Errorf("outcome = %q for a 7 m fix, want waiting_for_accuracy", status.Outcome)
	}
	if len(s.RawPath()) != 0 {
		t.Error("path points emitted before anchor lock")
	}
}

func TestTrackingSession_SpacingFloorDropsJitter(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	anchor := geo.Point{Lat: -1.2921, Lng: 36.8219}
	ts := lockAt(t, s, anchor)

	// 5 m of real movement is accepted.
	status := s.OnFix(goodFix(geo.DestinationPoint(anchor, 5, 90), ts+1000))
	if status.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %q for a 5 m move, want accepted", status.Outcome)
	}
	if len(s.RawPath()) != 2 {
		t.Fatalf("raw path length = %d, want 2", len(s.RawPath()))
	}

	// 0.2 m of jitter lands under the de-noise floor.
	status = s.OnFix(goodFix(geo.DestinationPoint(anchor, 5.2, 90), ts+2000))
	if status.Outcome != OutcomeBelowSpacing {
		t.Errorf("outcome = %q for 0.2 m of jitter, want below_spacing", status.Outcome)
	}
	if len(s.RawPath()) != 2 {
		t.Errorf("raw path length = %d after jitter, want still 2", len(s.RawPath()))
	}
}

func TestTrackingSession_DeadReckonsThroughBadAccuracy(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	anchor := geo.Point{Lat: -1.2921, Lng: 36.8219}
	ts := lockAt(t, s, anchor)

	s.OnHeading(90)
	// Four step peaks, then GPS accuracy collapses to 10 m at a point 40 m off.
	for i := uint64(0); i < 4; i++ {
		s.OnMotion(sensor.MotionSample{Z: 13.0, TimestampMs: ts + 400 + i*400})
	}
	garbage := geo.DestinationPoint(anchor, 40, 10)
	status := s.OnFix(sensor.Fix{Point: garbage, AccuracyMeters: 10.0, TimestampMs: ts + 2000})

	if status.Source != "steps" {
		t.Fatalf("measurement source = %q, want steps", status.Source)
	}
	if status.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %q, want accepted", status.Outcome)
	}
	// 4 steps x 0.76 m east of the anchor, not the garbage fix.
	want := geo.DestinationPoint(anchor, 4*0.76, 90)
	raw := s.RawPath()
	if d := geo.DistanceMeters(raw[len(raw)-1], want); d > 0.1 {
		t.Errorf("dead-reckoned point %.2f m from expected projection", d)
	}
}

func TestTrackingSession_StopClosesLoop(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	anchor := geo.Point{Lat: -1.2921, Lng: 36.8219}
	ts := lockAt(t, s, anchor)

	// Walk a 20 m square in 2 m strides, ending 2 m short of the start.
	bearings := []float64{90, 0, 270, 180}
	pos := anchor
	for leg, bearing := range bearings {
		strides := 10
		if leg == 3 {
			strides = 9
		}
		for i := 0; i < strides; i++ {
			pos = geo.DestinationPoint(pos, 2, bearing)
			ts += 1000
			s.OnFix(goodFix(pos, ts))
		}
	}

	clean, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %q after Stop, want stopped", s.State())
	}
	if len(clean) > len(s.RawPath()) {
		t.Errorf("clean path (%d) longer than raw path (%d)", len(clean), len(s.RawPath()))
	}
	if len(clean) < 4 {
		t.Fatalf("clean path has %d points, want at least the square's corners", len(clean))
	}
	first, last := clean[0], clean[len(clean)-1]
	if d := geo.DistanceMeters(first, last); d >= 2.0 {
		t.Errorf("polygon not closed: endpoints %.2f m apart", d)
	}

	if _, err := s.Stop(); err != ErrNotStarted {
		t.Errorf("Stop on a stopped session = %v, want ErrNotStarted", err)
	}
}

func TestTrackingSession_StopBeforeLockDiscardsAttempt(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.OnFix(goodFix(geo.Point{Lat: -1, Lng: 36}, 1000))

	if _, err := s.Stop(); err != ErrAnchorNotLocked {
		t.Fatalf("Stop before lock = %v, want ErrAnchorNotLocked", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %q, want idle so the caller can retry", s.State())
	}
}

func TestTrackingSession_RestartResetsCapture(t *testing.T) {
	s := NewTrackingSession("parcel-1", nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	anchor := geo.Point{Lat: -1.2921, Lng: 36.8219}
	ts := lockAt(t, s, anchor)
	s.OnFix(goodFix(geo.DestinationPoint(anchor, 5, 90), ts+1000))
	if _, err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	firstID := s.ID()

	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if len(s.RawPath()) != 0 || len(s.CleanPath()) != 0 {
		t.Error("paths survived a restart")
	}
	if s.AnchorState() != AnchorUnlocked {
		t.Errorf("anchor state = %q after restart, want unlocked", s.AnchorState())
	}
	if s.ID() == firstID {
		t.Error("restart did not assign a new session id")
	}
}
