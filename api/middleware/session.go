package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/api/responses"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

type contextKey string

const ctxSessionID contextKey = "session_id"

// tokenVerifier validates a session token and yields the session id.
type tokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// SessionIDFromContext returns the verified session id, or uuid.Nil when the
// request carried no session.
func SessionIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxSessionID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithSessionID injects a session id into the context. Exposed for tests and
// the WebSocket upgrade path.
func WithSessionID(ctx context.Context, sessionID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// Session verifies the session token header and scopes the request to it.
// Carts, checkout and order reads all key off this id.
func Session(verifier tokenVerifier, headerName string, logg *logger.Logger) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "X-Session-Token"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(headerName))
			if token == "" {
				// the ws upgrade cannot set headers from a browser
				token = strings.TrimSpace(r.URL.Query().Get("token"))
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token required"))
				return
			}

			sessionID, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
