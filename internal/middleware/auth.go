package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/equiptrack/defect-registry/internal/services"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "defect_session"

type contextKey string

const identityKey contextKey = "identity"

// SessionToken extracts the session token from the request cookie, or "".
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// IdentityFromContext returns the identity stashed by RequireSession.
func IdentityFromContext(ctx context.Context) (services.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(services.Identity)
	return ident, ok
}

// RequireSession guards protected routes: it resolves the session cookie and
// either injects the bound identity into the request context or replies 401.
// It never mutates anything beyond the store's own idle-deadline refresh.
func RequireSession(sessions services.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok, err := sessions.Resolve(r.Context(), SessionToken(r))
			if err != nil || !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized. Please log in."})
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
