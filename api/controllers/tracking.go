package controllers

import (
	"net/http"
	"time"

	"github.com/mesaviva/mesaviva-backend/api/middleware"
	"github.com/mesaviva/mesaviva-backend/api/responses"
	"github.com/mesaviva/mesaviva-backend/api/validators"
	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/internal/tracking"
	"github.com/mesaviva/mesaviva-backend/internal/ws"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

type positionRequest struct {
	Lat       float64   `json:"lat" validate:"latitude"`
	Lng       float64   `json:"lng" validate:"longitude"`
	Heading   *float64  `json:"heading" validate:"omitempty,min=0,max=360"`
	SpeedMPS  *float64  `json:"speed_mps" validate:"omitempty,min=0"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// TrackingState returns the current delivery snapshot for one of the
// session's orders.
func TrackingState(orderSvc orders.Service, manager *tracking.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if _, err := orderSvc.GetForSession(r.Context(), orderID, sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := manager.State(orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// TrackingSubscribe upgrades to a WebSocket that receives every state change
// for the order until delivery or cancellation.
func TrackingSubscribe(orderSvc orders.Service, manager *tracking.Manager, hub *ws.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if _, err := orderSvc.GetForSession(r.Context(), orderID, sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := manager.State(orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := ws.Serve(hub, logg, w, r, orderID); err != nil && logg != nil {
			logg.Error(r.Context(), "websocket upgrade failed", err)
		}
	}
}

// CourierPosition ingests a courier GPS sample and returns the resulting
// state. Out-of-order samples are rejected.
func CourierPosition(manager *tracking.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload positionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := manager.Ingest(r.Context(), orderID, tracking.Sample{
			Lat:       payload.Lat,
			Lng:       payload.Lng,
			Heading:   payload.Heading,
			SpeedMPS:  payload.SpeedMPS,
			Timestamp: payload.Timestamp,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}
