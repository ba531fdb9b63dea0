package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/api/responses"
	"github.com/mesaviva/mesaviva-backend/internal/menu"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// MenuCurrent returns the published week whose window covers today.
func MenuCurrent(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		week, err := svc.GetCurrentWeek(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, week)
	}
}

// MenuWeek returns one menu week by id.
func MenuWeek(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weekID, err := uuid.Parse(chi.URLParam(r, "weekID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid week id"))
			return
		}

		week, err := svc.GetWeek(r.Context(), weekID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, week)
	}
}
