package middleware

import (
	"net/http"
	"strings"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/model"
)

// LoginPath is where unauthenticated clients are sent.
const LoginPath = "/login"

// SessionVerifier reports the auth state and checks bearer tokens.
type SessionVerifier interface {
	Loading() bool
	VerifyToken(token string) (*model.User, error)
}

// RequireSession guards routes that need a signed-in user. While the session
// is still being restored it answers 503; without a valid token it answers
// 401 and points the client at the login route. On success the user is
// stored in the request context.
func RequireSession(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions.Loading() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "SESSION_LOADING", "Session is loading")
				return
			}

			user, err := sessions.VerifyToken(SessionToken(r))
			if err != nil {
				w.Header().Set("Location", LoginPath)
				w.Header().Set("WWW-Authenticate", `Bearer realm="aquatrack"`)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required")
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken reads a bearer token, falling back to the token query
// parameter for WebSocket clients that cannot set headers.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
