package model

import "strings"

// Address is a billing or shipping address in WooCommerce field layout.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// provinceCodes are the two-letter codes buyers habitually append to the
// city field ("Kelowna BC"). Canadian provinces plus US state codes that
// have shown up in real orders.
var provinceCodes = map[string]bool{
	"AB": true, "BC": true, "MB": true, "NB": true, "NL": true,
	"NS": true, "NT": true, "NU": true, "ON": true, "PE": true,
	"QC": true, "SK": true, "YT": true,
	"WA": true, "OR": true, "CA": true, "NY": true, "TX": true,
}

// SanitizeCity strips a trailing province/state suffix from a city value.
// WooCommerce rejects addresses whose city field repeats the province:
//
//	"Kelowna BC"  -> "Kelowna"
//	"Toronto, ON" -> "Toronto"
//
// Strings without a recognizable suffix pass through unchanged.
func SanitizeCity(city string) string {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return city
	}

	// Comma form: everything before the first comma is the city.
	if idx := strings.Index(trimmed, ","); idx >= 0 {
		return strings.TrimSpace(trimmed[:idx])
	}

	// Space form: drop a trailing two-letter province code.
	fields := strings.Fields(trimmed)
	if len(fields) >= 2 {
		last := fields[len(fields)-1]
		if provinceCodes[strings.ToUpper(last)] && len(last) == 2 {
			return strings.Join(fields[:len(fields)-1], " ")
		}
	}

	return city
}

// Sanitized returns a copy of the address with the city cleaned up.
func (a Address) Sanitized() Address {
	a.City = SanitizeCity(a.City)
	return a
}
