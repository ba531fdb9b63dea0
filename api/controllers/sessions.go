package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/api/responses"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// tokenIssuer mints session tokens.
type tokenIssuer interface {
	Issue(sessionID uuid.UUID) (string, error)
}

type sessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
}

// SessionCreate mints an anonymous cart session. There are no accounts; the
// signed token is the only credential a customer carries.
func SessionCreate(issuer tokenIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.New()
		token, err := issuer.Issue(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session token"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			SessionID: sessionID,
			Token:     token,
		})
	}
}
