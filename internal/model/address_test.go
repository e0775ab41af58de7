package model

import "testing"

func TestSanitizeCity(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain city", "Vancouver", "Vancouver"},
		{"trailing province code", "Kelowna BC", "Kelowna"},
		{"comma separated province", "Toronto, ON", "Toronto"},
		{"comma with full province", "Montreal, Quebec", "Montreal"},
		{"us state code", "Seattle WA", "Seattle"},
		{"two word city no code", "New Westminster", "New Westminster"},
		{"two word city with code", "Maple Ridge BC", "Maple Ridge"},
		{"short city not a code", "Ajax", "Ajax"},
		{"empty", "", ""},
		{"whitespace padded", "  Kelowna BC  ", "Kelowna"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeCity(tt.in); got != tt.want {
				t.Errorf("SanitizeCity(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddressSanitized(t *testing.T) {
	addr := Address{
		FirstName: "Sam",
		City:      "Kelowna BC",
		State:     "BC",
		Country:   "CA",
	}

	got := addr.Sanitized()
	if got.City != "Kelowna" {
		t.Errorf("Sanitized().City = %q, want %q", got.City, "Kelowna")
	}
	// Original must be untouched.
	if addr.City != "Kelowna BC" {
		t.Errorf("original mutated: City = %q", addr.City)
	}
}
