package controllers

import (
	"net/http"
	"strings"

	"github.com/mesaviva/mesaviva-backend/api/middleware"
	"github.com/mesaviva/mesaviva-backend/api/responses"
	"github.com/mesaviva/mesaviva-backend/api/validators"
	"github.com/mesaviva/mesaviva-backend/internal/checkout"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card transfer"`
}

// CheckoutConfirm turns the session's cart into an order. The Idempotency-Key
// header is required; retries with the same key return the original order.
func CheckoutConfirm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if idempotencyKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.Confirm(r.Context(), checkout.ConfirmInput{
			SessionID:      middleware.SessionIDFromContext(r.Context()),
			IdempotencyKey: idempotencyKey,
			PaymentMethod:  method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CheckoutQuote prices the current cart without creating anything.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quote, err := svc.Quote(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutPreview renders the shareable order summary text for the cart.
func CheckoutPreview(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Preview(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"summary": summary})
	}
}
