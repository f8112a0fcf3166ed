package models

import "testing"

func TestIsValidKind(t *testing.T) {
	tests := []struct {
		name     string
		kind     RecordKind
		expected bool
	}{
		{"fitness", KindFitness, true},
		{"permit", KindPermit, true},
		{"tax", KindTax, true},
		{"insurance", KindInsurance, true},
		{"unknown kind", "pollution", false},
		{"empty kind", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidKind(tt.kind); got != tt.expected {
				t.Errorf("IsValidKind(%s) = %v, want %v", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestNormalizeVehicleNo(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"lowercase", "cg04ab1234", "CG04AB1234"},
		{"surrounding spaces", "  CG04AB1234  ", "CG04AB1234"},
		{"mixed case with spaces", " cg04Ab1234 ", "CG04AB1234"},
		{"already normalized", "CG04AB1234", "CG04AB1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeVehicleNo(tt.in); got != tt.expected {
				t.Errorf("NormalizeVehicleNo(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}
