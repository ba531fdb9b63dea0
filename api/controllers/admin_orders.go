package controllers

import (
	"net/http"

	"github.com/mesaviva/mesaviva-backend/api/responses"
	"github.com/mesaviva/mesaviva-backend/api/validators"
	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

type statusUpdateRequest struct {
	Status string  `json:"status" validate:"required"`
	Actor  string  `json:"actor" validate:"required"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// AdminOrderList returns orders for the kitchen dashboard, optionally
// filtered by status.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := validators.ParseOrderStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrderFetch returns full order detail, status history included.
func AdminOrderFetch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminOrderStatus moves an order through its lifecycle. Skipping stages is
// rejected; repeating the current stage is a no-op.
func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.Advance(r.Context(), orderID, next, payload.Actor, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
