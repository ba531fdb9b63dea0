package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/api/middleware"
	"github.com/mesaviva/mesaviva-backend/api/responses"
	"github.com/mesaviva/mesaviva-backend/api/validators"
	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/internal/menu"
	"github.com/mesaviva/mesaviva-backend/internal/pricing"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// cartStores is the session-scoped cart persistence used by the handlers.
type cartStores interface {
	Load(ctx context.Context, sessionID uuid.UUID) (*cart.Store, error)
	Update(ctx context.Context, sessionID uuid.UUID, fn func(*cart.Store) error) (*cart.Store, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// cartSelection names one dish in a request body.
type cartSelection struct {
	WeekID   uuid.UUID `json:"week_id" validate:"required"`
	DayIndex int       `json:"day_index" validate:"min=0,max=6"`
	MealType string    `json:"meal_type" validate:"required,oneof=lunch dinner dessert"`
	ItemName string    `json:"item_name" validate:"required"`
	Tier     string    `json:"tier" validate:"omitempty,oneof=regular premium"`
}

type cartAddRequest struct {
	cartSelection
	// nil means "add one"
	Delta *int `json:"delta"`
}

type cartQuantityRequest struct {
	cartSelection
	Quantity int `json:"quantity" validate:"min=0"`
}

type cartRemoveRequest struct {
	cartSelection
}

type cartResponse struct {
	Lines   []cart.Line          `json:"lines"`
	Details cart.DeliveryDetails `json:"details"`
	Quote   pricing.Quote        `json:"quote"`
}

func newCartResponse(store *cart.Store, engine *pricing.Engine) cartResponse {
	return cartResponse{
		Lines:   store.Lines(),
		Details: store.DeliveryDetails(),
		Quote:   engine.Quote(store.Lines()),
	}
}

func (s cartSelection) toMenuSelection() (menu.Selection, error) {
	mealType, err := enums.ParseMealType(s.MealType)
	if err != nil {
		return menu.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid meal type")
	}
	tier, err := enums.ParsePriceTier(s.Tier)
	if err != nil {
		return menu.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price tier")
	}
	return menu.Selection{
		WeekID:   s.WeekID,
		DayIndex: s.DayIndex,
		MealType: mealType,
		ItemName: s.ItemName,
		Tier:     tier,
	}, nil
}

func (s cartSelection) toLineKey() (cart.LineKey, error) {
	sel, err := s.toMenuSelection()
	if err != nil {
		return cart.LineKey{}, err
	}
	return cart.LineKey{
		WeekID:   sel.WeekID,
		DayIndex: sel.DayIndex,
		MealType: sel.MealType,
		ItemName: sel.ItemName,
		Tier:     sel.Tier,
	}, nil
}

// CartFetch returns the session's current cart with a live quote.
func CartFetch(stores cartStores, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		store, err := stores.Load(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, engine))
	}
}

// CartAddItem adds or increments a line. A negative delta decrements and can
// remove the line entirely.
func CartAddItem(stores cartStores, menuSvc menu.Service, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sel, err := payload.toMenuSelection()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delta := 1
		if payload.Delta != nil {
			delta = *payload.Delta
		}

		item, err := menuSvc.ResolveItem(r.Context(), sel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		store, err := stores.Update(r.Context(), sessionID, func(s *cart.Store) error {
			_, addErr := s.AddOrIncrement(item, delta)
			return addErr
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, engine))
	}
}

// CartSetQuantity sets a line's quantity outright. Zero removes the line.
func CartSetQuantity(stores cartStores, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key, err := payload.toLineKey()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		store, err := stores.Update(r.Context(), sessionID, func(s *cart.Store) error {
			_, setErr := s.SetQuantity(key, payload.Quantity)
			return setErr
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, engine))
	}
}

// CartRemoveItem deletes a line. Removing a line that is not there is a no-op.
func CartRemoveItem(stores cartStores, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartRemoveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key, err := payload.toLineKey()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		store, err := stores.Update(r.Context(), sessionID, func(s *cart.Store) error {
			s.Remove(key)
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, engine))
	}
}

// CartClear empties the cart and resets the delivery details.
func CartClear(stores cartStores, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		store, err := stores.Update(r.Context(), sessionID, func(s *cart.Store) error {
			s.Clear()
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, engine))
	}
}

// CartSetDetails merges a partial delivery details update into the cart.
func CartSetDetails(stores cartStores, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch cart.DeliveryDetailsPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		store, err := stores.Update(r.Context(), sessionID, func(s *cart.Store) error {
			s.SetDeliveryDetails(patch)
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store, engine))
	}
}
