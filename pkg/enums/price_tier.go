package enums

import "fmt"

// PriceTier distinguishes parallel price points for the same dish. The tier is
// part of a cart line's identity, so quantities never merge across tiers.
type PriceTier string

const (
	PriceTierRegular PriceTier = "regular"
	PriceTierPremium PriceTier = "premium"
)

var validPriceTiers = []PriceTier{
	PriceTierRegular,
	PriceTierPremium,
}

// String implements fmt.Stringer.
func (p PriceTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceTier.
func (p PriceTier) IsValid() bool {
	for _, candidate := range validPriceTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceTier converts raw input into a PriceTier.
func ParsePriceTier(value string) (PriceTier, error) {
	if value == "" {
		return PriceTierRegular, nil
	}
	for _, candidate := range validPriceTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price tier %q", value)
}
