// Package units provides shared constants and validation for magnetic field
// units and the curvature conversion used by the helix parametrisation.
package units

// Field unit constants
const (
	Tesla  = "tesla"
	KGauss = "kgauss"
	Gauss  = "gauss"
)

// CurvatureConstant converts field (Tesla) and transverse momentum (GeV/c)
// into curvature in 1/cm: curvature = q * CurvatureConstant * Bz / pT.
const CurvatureConstant = 2.99792458e-3

// ValidFieldUnits contains all valid field unit values
var ValidFieldUnits = []string{Tesla, KGauss, Gauss}

// IsValid checks if the given field unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidFieldUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "tesla, kgauss, gauss"
}

// ToTesla converts a field component expressed in the given unit to Tesla.
// The associators always work in Tesla.
func ToTesla(value float64, unit string) float64 {
	switch unit {
	case KGauss:
		return value * 0.1 // 1 kG = 0.1 T
	case Gauss:
		return value * 1e-4
	case Tesla:
		return value
	default:
		return value // default to Tesla if unknown unit
	}
}

// FromTesla converts a field component in Tesla to the target unit.
func FromTesla(valueTesla float64, targetUnit string) float64 {
	switch targetUnit {
	case KGauss:
		return valueTesla * 10
	case Gauss:
		return valueTesla * 1e4
	default:
		return valueTesla
	}
}
