// Package survey implements parcel boundary capture: anchor locking,
// continuous-walk tracking, and stop-and-sample corner surveying. Each
// parcel gets its own session instance; sessions share nothing mutable, so
// different parcels can be captured concurrently without coordination.
package survey

import "errors"

// SessionState is the lifecycle of a tracking session.
type SessionState string

const (
	StateIdle          SessionState = "idle"
	StateAnchorLocking SessionState = "anchor_locking"
	StateTracking      SessionState = "tracking"
	StateStopped       SessionState = "stopped"
)

// AnchorState is the lock status of a session's reference anchor.
type AnchorState string

const (
	AnchorUnlocked  AnchorState = "unlocked"
	AnchorAveraging AnchorState = "averaging"
	AnchorLocked    AnchorState = "locked"
)

// FailureReason classifies why a capture attempt produced no result. All
// reasons except the sensor ones are recoverable: committed path data is
// untouched and the caller may retry the failed window.
type FailureReason string

const (
	FailureNone                 FailureReason = ""
	FailureSensorUnavailable    FailureReason = "sensor_unavailable"
	FailurePermissionDenied     FailureReason = "permission_denied"
	FailureAccuracyTimeout      FailureReason = "accuracy_timeout"
	FailureMotionDuringSampling FailureReason = "motion_during_sampling"
	FailureInsufficientSamples  FailureReason = "insufficient_samples"
	FailureNoiseRejected        FailureReason = "noise_rejected"
)

var (
	// ErrNotStarted is returned for operations that need an active session.
	ErrNotStarted = errors.New("session not started")

	// ErrAlreadyStarted is returned when Start is called on a live session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrAnchorNotLocked is returned when a session stops before its anchor
	// ever locked. The caller may retry with a fresh Start.
	ErrAnchorNotLocked = errors.New("anchor never locked")

	// ErrWindowActive is returned when a corner window is begun while one
	// is already open.
	ErrWindowActive = errors.New("sampling window already active")

	// ErrNoWindow is returned when a window event arrives with no window open.
	ErrNoWindow = errors.New("no sampling window active")
)

// FixOutcome describes what a tracking session did with one fix.
type FixOutcome string

const (
	// OutcomeIgnored: the session is not accepting fixes (idle or stopped).
	OutcomeIgnored FixOutcome = "ignored"

	// OutcomeWaitingForAccuracy: anchor lock needs a fix at or under the
	// accuracy gate before averaging can proceed.
	OutcomeWaitingForAccuracy FixOutcome = "waiting_for_accuracy"

	// OutcomeAveraging: the fix joined the anchor averaging window.
	OutcomeAveraging FixOutcome = "averaging"

	// OutcomeAnchorLocked: this fix completed the averaging window and the
	// session transitioned to tracking.
	OutcomeAnchorLocked FixOutcome = "anchor_locked"

	// OutcomeAccepted: the fused point joined the raw path.
	OutcomeAccepted FixOutcome = "accepted"

	// OutcomeBelowSpacing: the fused point was within the de-noise floor of
	// the last accepted point and was dropped.
	OutcomeBelowSpacing FixOutcome = "below_spacing"
)

// FixStatus is the structured per-fix feedback a caller renders for the
// operator. Fields are populated as far as processing got.
type FixStatus struct {
	Outcome        FixOutcome
	AccuracyMeters float64
	AnchorSamples  int
	Source         string
	ElapsedMs      uint64
}
