// Package telemetry carries differential-correction data between a reference
// device parked on a known landmark and the rover sessions sampling corners.
// The reference device publishes AnchorTelemetry records; rovers average the
// recent delta vectors and subtract the bias from their own raw fixes.
package telemetry

import (
	"math"
	"sync"

	"github.com/Imbaya/shamba-sub000/internal/geo"
)

// DeltaWindowSize is the number of recent telemetry samples averaged into
// the applied correction.
const DeltaWindowSize = 60

// AnchorTelemetry is one reference-device observation: where the device
// measured itself versus where the landmark actually is.
type AnchorTelemetry struct {
	SessionID        string    `json:"session_id"`
	Measured         geo.Point `json:"measured"`
	Truth            geo.Point `json:"truth"`
	DeltaNorthMeters float64   `json:"delta_north_meters"`
	DeltaEastMeters  float64   `json:"delta_east_meters"`
	AccuracyMeters   float64   `json:"accuracy_meters"`
	TimestampMs      uint64    `json:"timestamp_ms"`
}

// Delta is a bias vector in meters, north and east positive.
type Delta struct {
	NorthMeters float64
	EastMeters  float64
}

// ComputeDelta returns the bias between a known landmark and the position a
// device measured while sitting on it.
func ComputeDelta(truth, measured geo.Point) Delta {
	return Delta{
		NorthMeters: (truth.Lat - measured.Lat) * (math.Pi / 180) * geo.WGS84SemiMajorMeters,
		EastMeters:  (truth.Lng - measured.Lng) * (math.Pi / 180) * geo.WGS84SemiMajorMeters * math.Cos(geo.Radians(measured.Lat)),
	}
}

// ApplyDelta corrects a raw fix by the averaged bias vector. It inverts the
// ComputeDelta transform at the fix's own latitude.
func ApplyDelta(raw geo.Point, d Delta) geo.Point {
	latScale := (math.Pi / 180) * geo.WGS84SemiMajorMeters
	lngScale := latScale * math.Cos(geo.Radians(raw.Lat))
	if math.Abs(lngScale) < 1e-9 {
		lngScale = latScale
	}
	return geo.Point{
		Lat: raw.Lat + d.NorthMeters/latScale,
		Lng: raw.Lng + d.EastMeters/lngScale,
	}
}

// Corrector keeps a sliding window of the most recent delta observations and
// serves their arithmetic mean. Safe for one writer and many readers.
type Corrector struct {
	mu     sync.Mutex
	window []Delta
	next   int
	filled bool
	latest AnchorTelemetry
	seen   bool
}

// NewCorrector returns a Corrector with an empty window.
func NewCorrector() *Corrector {
	return &Corrector{window: make([]Delta, 0, DeltaWindowSize)}
}

// Push records one telemetry observation, evicting the oldest once the
// window holds DeltaWindowSize samples.
func (c *Corrector) Push(t AnchorTelemetry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := Delta{NorthMeters: t.DeltaNorthMeters, EastMeters: t.DeltaEastMeters}
	if len(c.window) < DeltaWindowSize {
		c.window = append(c.window, d)
	} else {
		c.window[c.next] = d
		c.next = (c.next + 1) % DeltaWindowSize
		c.filled = true
	}
	c.latest = t
	c.seen = true
}

// Delta returns the mean of the windowed observations. ok is false while no
// telemetry has been pushed.
func (c *Corrector) Delta() (d Delta, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.window) == 0 {
		return Delta{}, false
	}
	var north, east float64
	for _, w := range c.window {
		north += w.NorthMeters
		east += w.EastMeters
	}
	n := float64(len(c.window))
	return Delta{NorthMeters: north / n, EastMeters: east / n}, true
}

// Latest returns the most recently pushed telemetry record, for lag and
// distance checks during corner sampling.
func (c *Corrector) Latest() (AnchorTelemetry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.seen
}

// Correct applies the current averaged delta to a raw point. With an empty
// window the point passes through unchanged.
func (c *Corrector) Correct(raw geo.Point) geo.Point {
	d, ok := c.Delta()
	if !ok {
		return raw
	}
	return ApplyDelta(raw, d)
}

// SampleCount reports how many observations the window currently holds.
func (c *Corrector) SampleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.window)
}
