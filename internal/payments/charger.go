package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// Receipt is the outcome of a settled charge attempt.
type Receipt struct {
	Reference string
	Status    enums.PaymentStatus
}

// Charger settles a charge for a confirmed order. Implementations must be
// safe to call more than once with the same order ID; checkout retries after
// transient failures.
type Charger interface {
	Charge(ctx context.Context, orderID uuid.UUID, amountCents int, method enums.PaymentMethod) (Receipt, error)
}

// Refunder reverses a settled charge after cancellation.
type Refunder interface {
	Refund(ctx context.Context, orderID uuid.UUID, reference string, amountCents int) error
}

// Provider is the full payment surface the order lifecycle needs.
type Provider interface {
	Charger
	Refunder
}

// cashProvider marks cash and transfer orders as payable on delivery. Nothing
// is settled up front, so charges always succeed and refunds are bookkeeping.
type cashProvider struct {
	logg *logger.Logger
}

// NewCashProvider builds the pay-on-delivery provider.
func NewCashProvider(logg *logger.Logger) (Provider, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &cashProvider{logg: logg}, nil
}

func (p *cashProvider) Charge(ctx context.Context, orderID uuid.UUID, amountCents int, method enums.PaymentMethod) (Receipt, error) {
	if amountCents <= 0 {
		return Receipt{}, pkgerrors.New(pkgerrors.CodePayment, "charge amount must be positive").
			WithDetails(map[string]any{"amount_cents": amountCents})
	}
	if !method.IsValid() {
		return Receipt{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	p.logg.Info(p.logg.WithOrderID(ctx, orderID.String()), "payment deferred to delivery")
	return Receipt{
		Reference: fmt.Sprintf("cod-%s", orderID),
		Status:    enums.PaymentStatusUnpaid,
	}, nil
}

func (p *cashProvider) Refund(ctx context.Context, orderID uuid.UUID, reference string, amountCents int) error {
	// nothing was captured; the courier is told not to collect
	p.logg.Info(p.logg.WithOrderID(ctx, orderID.String()), "cash collection voided")
	return nil
}
