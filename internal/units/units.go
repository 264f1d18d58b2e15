// Package units provides shared constants and conversions for the display
// units used in survey reports. Internally everything is meters and meters
// per second; conversion happens only at the reporting edge.
package units

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Area unit constants
const (
	SquareMeters = "sqm"
	Hectares     = "ha"
	Acres        = "acres"
)

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, MPH, KMPH, KPH}

// IsValidSpeedUnit checks if the given unit is in the list of valid units
func IsValidSpeedUnit(unit string) bool {
	for _, validUnit := range ValidSpeedUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from meters per second to the target units.
// The capture log stores speeds in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694 // m/s to mph
	case KMPH, KPH:
		return speedMPS * 3.6 // m/s to km/h
	case MPS:
		return speedMPS
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// ConvertArea converts an area from square meters to the target units.
func ConvertArea(areaSqm float64, targetUnits string) float64 {
	switch targetUnits {
	case Hectares:
		return areaSqm / 10000
	case Acres:
		return areaSqm / 4046.8564224
	case SquareMeters:
		return areaSqm
	default:
		return areaSqm
	}
}

// MetersToFeet converts a distance for imperial display.
func MetersToFeet(meters float64) float64 {
	return meters * 3.28084
}
