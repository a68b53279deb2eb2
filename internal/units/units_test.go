package units

import (
	"math"
	"testing"
)

func TestToTesla(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"3.8 T stays", 3.8, Tesla, 3.8},
		{"38 kG to T", 38, KGauss, 3.8},
		{"40000 G to T", 40000, Gauss, 4.0},
		{"unknown units default to tesla", 2.0, "unknown", 2.0},
		{"zero field", 0, KGauss, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToTesla(tt.value, tt.unit)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ToTesla(%f, %s) = %f, want %f", tt.value, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestFromTeslaRoundTrip(t *testing.T) {
	for _, unit := range ValidFieldUnits {
		got := ToTesla(FromTesla(3.8, unit), unit)
		if math.Abs(got-3.8) > 1e-12 {
			t.Errorf("round trip through %s = %f, want 3.8", unit, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"tesla", Tesla, true},
		{"kgauss", KGauss, true},
		{"gauss", Gauss, true},
		{"upper case", "TESLA", false},
		{"empty", "", false},
		{"speed unit", "mph", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestCurvatureConstant(t *testing.T) {
	// 1 GeV track in 3.8 T has a radius of roughly 87.7 cm.
	radius := 1.0 / (CurvatureConstant * 3.8)
	if math.Abs(radius-87.78) > 0.1 {
		t.Errorf("radius = %f cm, want ~87.78", radius)
	}
}
