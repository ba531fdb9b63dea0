package orders

import (
	"testing"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
)

func TestForwardPathIsAccepted(t *testing.T) {
	path := []enums.OrderStatus{
		enums.OrderStatusDraft,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		changed, err := ValidateTransition(path[i], path[i+1])
		if err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", path[i], path[i+1], err)
		}
		if !changed {
			t.Fatalf("%s -> %s: expected changed=true", path[i], path[i+1])
		}
	}
}

func TestSameStatusIsIdempotentNoOp(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusDraft,
		enums.OrderStatusPreparing,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		changed, err := ValidateTransition(status, status)
		if err != nil {
			t.Errorf("%s -> %s: expected no-op, got %v", status, status, err)
		}
		if changed {
			t.Errorf("%s -> %s: expected changed=false", status, status)
		}
	}
}

func TestSkippingStepsIsRejected(t *testing.T) {
	cases := []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusDraft, enums.OrderStatusPreparing},
		{enums.OrderStatusConfirmed, enums.OrderStatusDelivered},
		{enums.OrderStatusDelivered, enums.OrderStatusPreparing},
		{enums.OrderStatusPreparing, enums.OrderStatusConfirmed},
	}
	for _, tc := range cases {
		_, err := ValidateTransition(tc.from, tc.to)
		typed := pkgerrors.As(err)
		if typed == nil {
			t.Errorf("%s -> %s: expected error", tc.from, tc.to)
			continue
		}
		if typed.Code() != pkgerrors.CodeStateConflict && typed.Code() != pkgerrors.CodeStateLocked {
			t.Errorf("%s -> %s: unexpected code %s", tc.from, tc.to, typed.Code())
		}
	}
}

func TestCancellationWindow(t *testing.T) {
	for _, from := range []enums.OrderStatus{
		enums.OrderStatusDraft,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
	} {
		changed, err := ValidateTransition(from, enums.OrderStatusCancelled)
		if err != nil || !changed {
			t.Errorf("%s -> cancelled: expected accept, got changed=%v err=%v", from, changed, err)
		}
	}

	_, err := ValidateTransition(enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateLocked {
		t.Fatalf("out_for_delivery -> cancelled: expected state locked, got %v", err)
	}
}

func TestTerminalStatusesAreLocked(t *testing.T) {
	for _, from := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		_, err := ValidateTransition(from, enums.OrderStatusConfirmed)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateLocked {
			t.Errorf("%s -> confirmed: expected state locked, got %v", from, err)
		}
	}
}

func TestUnknownStatusIsValidationError(t *testing.T) {
	_, err := ValidateTransition(enums.OrderStatusDraft, enums.OrderStatus("shipped"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
