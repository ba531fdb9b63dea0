package orders

import (
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
)

// forwardTransitions is the only legal forward path. Every order walks it in
// order; skipping a step is rejected, not repaired.
var forwardTransitions = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusDraft:          enums.OrderStatusConfirmed,
	enums.OrderStatusConfirmed:      enums.OrderStatusPreparing,
	enums.OrderStatusPreparing:      enums.OrderStatusOutForDelivery,
	enums.OrderStatusOutForDelivery: enums.OrderStatusDelivered,
}

// cancellableFrom lists the statuses an order may still be cancelled from.
// Once the courier is dispatched, cancellation is no longer possible.
var cancellableFrom = map[enums.OrderStatus]bool{
	enums.OrderStatusDraft:     true,
	enums.OrderStatusConfirmed: true,
	enums.OrderStatusPreparing: true,
}

// ValidateTransition checks whether current may move to next. It returns
// changed=false with no error when the statuses are equal, so repeated
// delivery callbacks stay harmless.
func ValidateTransition(current, next enums.OrderStatus) (changed bool, err error) {
	if !next.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": string(next)})
	}
	if current == next {
		return false, nil
	}
	if current.IsTerminal() {
		return false, pkgerrors.New(pkgerrors.CodeStateLocked, "order already finished").
			WithDetails(map[string]any{"current": string(current)})
	}

	if next == enums.OrderStatusCancelled {
		if !cancellableFrom[current] {
			return false, pkgerrors.New(pkgerrors.CodeStateLocked, "order can no longer be cancelled").
				WithDetails(map[string]any{"current": string(current)})
		}
		return true, nil
	}

	if forwardTransitions[current] != next {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "status transition disallowed").
			WithDetails(map[string]any{
				"current":   string(current),
				"requested": string(next),
			})
	}
	return true, nil
}
