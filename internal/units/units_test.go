package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSpeedUnit(t *testing.T) {
	for _, unit := range ValidSpeedUnits {
		assert.True(t, IsValidSpeedUnit(unit), "unit %q", unit)
	}
	assert.False(t, IsValidSpeedUnit("knots"))
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		speedMPS float64
		units    string
		want     float64
	}{
		{1.0, MPS, 1.0},
		{1.0, KMPH, 3.6},
		{1.0, KPH, 3.6},
		{10.0, MPH, 22.3694},
		{5.0, "unknown", 5.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ConvertSpeed(tt.speedMPS, tt.units), 1e-6,
			"ConvertSpeed(%v, %q)", tt.speedMPS, tt.units)
	}
}

func TestConvertArea(t *testing.T) {
	tests := []struct {
		areaSqm float64
		units   string
		want    float64
	}{
		{10000, Hectares, 1.0},
		{4046.8564224, Acres, 1.0},
		{250, SquareMeters, 250},
		{250, "unknown", 250},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ConvertArea(tt.areaSqm, tt.units), 1e-9,
			"ConvertArea(%v, %q)", tt.areaSqm, tt.units)
	}
}

func TestMetersToFeet(t *testing.T) {
	assert.InDelta(t, 328.084, MetersToFeet(100), 1e-6)
}
