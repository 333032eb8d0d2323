package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiwari-pos/storefront/internal/session"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "sid"

const sessionKey contextKey = "session_id"

// Session reads the browser session id from the sid cookie, issuing a new
// one when the cookie is missing or malformed.
func Session(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id uuid.UUID
			if c, err := r.Cookie(SessionCookie); err == nil {
				id, err = session.ParseID(c.Value)
				if err != nil {
					id = uuid.Nil
				}
			}
			if id == uuid.Nil {
				id = session.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id.String(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session id stored by Session.
func SessionFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionKey).(uuid.UUID)
	return id, ok
}
