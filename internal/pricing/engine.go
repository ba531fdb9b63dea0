package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/pkg/config"
)

// FeeSchedule holds the parsed rates the engine applies. Rates stay decimal
// until the single terminal rounding to cents.
type FeeSchedule struct {
	TaxRate                    decimal.Decimal
	GratuityRate               decimal.Decimal
	DeliveryFeeCents           int
	FreeDeliveryThresholdCents int
	AlwaysFreeDelivery         bool
	PrepBaseMinutes            int
}

// ScheduleFromConfig parses the configured rates into a FeeSchedule.
func ScheduleFromConfig(cfg config.PricingConfig) (FeeSchedule, error) {
	taxRate, err := cfg.TaxRateDecimal()
	if err != nil {
		return FeeSchedule{}, err
	}
	gratuityRate, err := cfg.GratuityRateDecimal()
	if err != nil {
		return FeeSchedule{}, err
	}
	return FeeSchedule{
		TaxRate:                    taxRate,
		GratuityRate:               gratuityRate,
		DeliveryFeeCents:           cfg.DeliveryFeeCents,
		FreeDeliveryThresholdCents: cfg.FreeDeliveryThresholdCents,
		AlwaysFreeDelivery:         cfg.AlwaysFreeDelivery,
		PrepBaseMinutes:            cfg.PrepBaseMinutes,
	}, nil
}

// Quote is the full price breakdown for a cart. All figures are integer cents.
type Quote struct {
	SubtotalCents        int `json:"subtotal_cents"`
	TaxCents             int `json:"tax_cents"`
	DeliveryFeeCents     int `json:"delivery_fee_cents"`
	GratuityCents        int `json:"gratuity_cents"`
	TotalCents           int `json:"total_cents"`
	EstimatedPrepMinutes int `json:"estimated_prep_minutes"`
	ItemCount            int `json:"item_count"`
}

// Engine derives quotes from cart lines. Quotes are pure functions of the
// lines and the schedule, so the same cart always prices identically.
type Engine struct {
	schedule FeeSchedule
}

// NewEngine constructs the pricing engine.
func NewEngine(schedule FeeSchedule) (*Engine, error) {
	if schedule.TaxRate.IsNegative() || schedule.GratuityRate.IsNegative() {
		return nil, fmt.Errorf("rates must not be negative")
	}
	if schedule.DeliveryFeeCents < 0 {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	return &Engine{schedule: schedule}, nil
}

// Quote prices the given lines. Each component is rounded to cents exactly
// once; intermediate math stays exact.
func (e *Engine) Quote(lines []cart.Line) Quote {
	subtotal := 0
	itemCount := 0
	maxPrep := 0
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
		itemCount += line.Quantity
		if line.PrepMinutes > maxPrep {
			maxPrep = line.PrepMinutes
		}
	}

	tax := applyRate(subtotal, e.schedule.TaxRate)
	gratuity := applyRate(subtotal, e.schedule.GratuityRate)
	deliveryFee := e.deliveryFee(subtotal, len(lines))

	prep := e.schedule.PrepBaseMinutes
	if maxPrep > prep {
		prep = maxPrep
	}
	if len(lines) == 0 {
		prep = 0
	}

	return Quote{
		SubtotalCents:        subtotal,
		TaxCents:             tax,
		DeliveryFeeCents:     deliveryFee,
		GratuityCents:        gratuity,
		TotalCents:           subtotal + tax + deliveryFee + gratuity,
		EstimatedPrepMinutes: prep,
		ItemCount:            itemCount,
	}
}

func (e *Engine) deliveryFee(subtotalCents, lineCount int) int {
	if lineCount == 0 {
		return 0
	}
	if e.schedule.AlwaysFreeDelivery {
		return 0
	}
	if e.schedule.FreeDeliveryThresholdCents > 0 && subtotalCents >= e.schedule.FreeDeliveryThresholdCents {
		return 0
	}
	return e.schedule.DeliveryFeeCents
}

// applyRate multiplies integer cents by a decimal rate and rounds half away
// from zero, once.
func applyRate(cents int, rate decimal.Decimal) int {
	if rate.IsZero() || cents == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(cents)).Mul(rate).Round(0).IntPart())
}
