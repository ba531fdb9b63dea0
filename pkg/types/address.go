package types

import "strings"

// Address is the delivery destination for an order. Lat/Lng anchor the
// tracking destination; they come from the address-entry flow, not the core.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// IsZero reports whether the address has no usable street line.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Line1) == ""
}

// OneLine renders the address as a single human-readable line.
func (a Address) OneLine() string {
	parts := []string{a.Line1}
	if a.Line2 != nil && strings.TrimSpace(*a.Line2) != "" {
		parts = append(parts, *a.Line2)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if a.State != "" {
		parts = append(parts, a.State)
	}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	return strings.Join(parts, ", ")
}
