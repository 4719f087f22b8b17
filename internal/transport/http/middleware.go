package http

import (
	"context"
	"net/http"

	"quizhub/internal/domain"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "quiz_session"

type contextKey string

const usernameKey contextKey = "username"

// usernameFrom returns the authenticated username stored by requireSession.
func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

// requireSession gates a handler behind a valid session cookie and stashes
// the resolved username in the request context.
func (a *API) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		username, err := a.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next(w, r.WithContext(ctx))
	}
}

// requireRole additionally checks the stored credential's role.
func (a *API) requireRole(role domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r.Context())
		cred, ok, err := a.store.Lookup(r.Context(), username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if !ok || cred.Role != role {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}
