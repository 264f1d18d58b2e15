package survey

import (
	"testing"
	"time"

	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
)

func goodFix(p geo.Point, atMs uint64) sensor.Fix {
	return sensor.Fix{Point: p, AccuracyMeters: 2.0, TimestampMs: atMs}
}

func TestAnchorLock_AveragesWindowIntoCentroid(t *testing.T) {
	a := NewAnchorLock(3.0, 30*time.Second)
	if a.State() != AnchorUnlocked {
		t.Fatalf("initial state = %q, want unlocked", a.State())
	}

	fixes := []geo.Point{
		{Lat: -1.0, Lng: 36.0},
		{Lat: -1.00001, Lng: 36.00001},
		{Lat: -1.00002, Lng: 36.0},
	}
	if a.Observe(goodFix(fixes[0], 1000)) {
		t.Fatal("locked on the first fix")
	}
	if a.State() != AnchorAveraging {
		t.Fatalf("state = %q after first good fix, want averaging", a.State())
	}
	a.Observe(goodFix(fixes[1], 15000))
	if !a.Observe(goodFix(fixes[2], 31000)) {
		t.Fatal("did not lock once the 30 s window elapsed")
	}

	point, ok := a.Point()
	if !ok {
		t.Fatal("no point from a locked anchor")
	}
	want := geo.Point{
		Lat: (fixes[0].Lat + fixes[1].Lat + fixes[2].Lat) / 3,
		Lng: (fixes[0].Lng + fixes[1].Lng + fixes[2].Lng) / 3,
	}
	if d := geo.DistanceMeters(point, want); d > 2.0 {
		t.Errorf("anchor %.3f m from centroid, want within 2 m", d)
	}
	if point != want {
		t.Errorf("anchor = %+v, want exact centroid %+v", point, want)
	}
}

func TestAnchorLock_BadFixWhileUnlockedIsIgnored(t *testing.T) {
	a := NewAnchorLock(3.0, 30*time.Second)
	a.Observe(sensor.Fix{Point: geo.Point{Lat: -1, Lng: 36}, AccuracyMeters: 6.0, TimestampMs: 1000})

	if a.State() != AnchorUnlocked {
		t.Errorf("state = %q after a 6 m fix, want unlocked", a.State())
	}
}

func TestAnchorLock_BadFixResetsBufferButStaysAveraging(t *testing.T) {
	a := NewAnchorLock(3.0, 30*time.Second)
	p := geo.Point{Lat: -1, Lng: 36}

	a.Observe(goodFix(p, 1000))
	a.Observe(goodFix(p, 5000))
	if a.SampleCount() != 2 {
		t.Fatalf("sample count = %d, want 2", a.SampleCount())
	}

	a.Observe(sensor.Fix{Point: p, AccuracyMeters: 4.0, TimestampMs: 6000})
	if a.State() != AnchorAveraging {
		t.Errorf("state = %q after a bad fix mid-window, want averaging", a.State())
	}
	if a.SampleCount() != 0 {
		t.Errorf("sample count = %d after a bad fix, want buffer discarded", a.SampleCount())
	}

	// The window restarts from the next good fix, not the original start.
	a.Observe(goodFix(p, 10000))
	if a.Observe(goodFix(p, 31000)) {
		t.Error("locked 21 s after the restarted window opened")
	}
	if !a.Observe(goodFix(p, 40000)) {
		t.Error("did not lock 30 s after the restarted window opened")
	}
}

func TestAnchorLock_Reset(t *testing.T) {
	a := NewAnchorLock(3.0, 30*time.Second)
	a.Observe(goodFix(geo.Point{Lat: -1, Lng: 36}, 1000))
	a.Reset()

	if a.State() != AnchorUnlocked || a.SampleCount() != 0 {
		t.Errorf("state = %q, samples = %d after Reset, want unlocked and empty", a.State(), a.SampleCount())
	}
}

func TestAnchorLock_LockedIgnoresFurtherFixes(t *testing.T) {
	a := NewAnchorLock(3.0, 30*time.Second)
	p := geo.Point{Lat: -1, Lng: 36}
	a.Observe(goodFix(p, 1000))
	a.Observe(goodFix(p, 31000))
	if a.State() != AnchorLocked {
		t.Fatalf("state = %q, want locked", a.State())
	}

	far := geo.DestinationPoint(p, 100, 90)
	a.Observe(goodFix(far, 32000))
	point, _ := a.Point()
	if point != p {
		t.Errorf("anchor moved after lock: %+v", point)
	}
}

func TestReferenceTelemetry(t *testing.T) {
	truth := geo.Point{Lat: -1.0, Lng: 36.0}
	measured := geo.Point{Lat: -1.00001, Lng: 36.00001}

	rec := ReferenceTelemetry("ref-1", truth, measured, 1.8, 5000)
	if rec.SessionID != "ref-1" || rec.TimestampMs != 5000 || rec.AccuracyMeters != 1.8 {
		t.Errorf("record metadata = %+v", rec)
	}
	// Truth is north and west of the measured point.
	if rec.DeltaNorthMeters <= 0 || rec.DeltaEastMeters >= 0 {
		t.Errorf("delta = (%f north, %f east), want north positive and east negative",
			rec.DeltaNorthMeters, rec.DeltaEastMeters)
	}
}
