// Package sensor turns a raw byte stream from a handheld GPS rig into typed
// fix, motion, and heading events, and fans the stream out to any number of
// subscribers. The wire carries standard NMEA 0183 sentences interleaved
// with two rig-local line formats for the strapped-on IMU puck and compass.
package sensor

import "github.com/Imbaya/shamba-sub000/internal/geo"

// Fix is one raw reading from the positioning provider. Fixes are immutable
// once decoded; downstream stages copy what they need.
type Fix struct {
	Point          geo.Point `json:"point"`
	AccuracyMeters float64   `json:"accuracy_m"`
	SpeedMps       *float64  `json:"speed_mps,omitempty"`
	HeadingDeg     *float64  `json:"heading_deg,omitempty"`
	TimestampMs    uint64    `json:"timestamp_ms"`
}

// MotionSample is one 3-axis accelerometer reading, gravity included, in
// m/s² per axis.
type MotionSample struct {
	X, Y, Z     float64
	TimestampMs uint64
}

// EventKind tags a decoded stream event.
type EventKind string

const (
	// EventNone is returned for lines that decode cleanly but carry nothing
	// the capture engine consumes (unhandled NMEA sentence types).
	EventNone EventKind = "none"
	// EventFix carries a position fix.
	EventFix EventKind = "fix"
	// EventMotion carries an accelerometer sample.
	EventMotion EventKind = "motion"
	// EventHeading carries a standalone compass heading in degrees.
	EventHeading EventKind = "heading"
)

// Event is one decoded line from the sensor stream.
type Event struct {
	Kind       EventKind
	Fix        Fix
	Motion     MotionSample
	HeadingDeg float64
}
