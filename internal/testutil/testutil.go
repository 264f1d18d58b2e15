// Package testutil provides shared test utilities and fixtures.
package testutil

import (
	"testing"

	"github.com/Imbaya/shamba-sub000/internal/geo"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertPointWithin fails unless got is within tolMeters of want.
func AssertPointWithin(t *testing.T, got, want geo.Point, tolMeters float64) {
	t.Helper()
	if d := geo.DistanceMeters(got, want); d > tolMeters {
		t.Errorf("point %.3f m from expected, want within %.3f m", d, tolMeters)
	}
}
