// Package middleware carries the HTTP middleware: session authentication
// with transparent token refresh, and request ID tagging.
package middleware

import (
	"context"
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/auth/session"
	"github.com/receiptdrop/receiptdrop/internal/auth/token"
)

type contextKey string

const (
	userKey        contextKey = "sessionUser"
	accessTokenKey contextKey = "accessToken"
)

// UserFrom returns the authenticated user stashed by RequireSession.
func UserFrom(ctx context.Context) (session.User, bool) {
	u, ok := ctx.Value(userKey).(session.User)
	return u, ok
}

// AccessTokenFrom returns the validated access token for the request.
func AccessTokenFrom(ctx context.Context) string {
	if tok, ok := ctx.Value(accessTokenKey).(string); ok {
		return tok
	}
	return ""
}

// RequireSession resolves the session cookie, obtains a valid access token
// through the token manager, and stashes both in the request context. When
// a refresh happened the session cookie is re-issued; when credentials are
// unusable the session is destroyed and the request denied. Browser routes
// get a redirect to /login, API routes a 401 JSON body.
func RequireSession(sessions *session.Store, tokens *token.Manager, api bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Get(r)
			if err != nil {
				deny(w, r, api)
				return
			}

			access, updated, err := tokens.ValidAccessToken(r.Context(), user)
			if err != nil {
				// Never proceed on a stale token; a failed refresh ends the
				// session.
				sessions.Clear(w)
				deny(w, r, api)
				return
			}
			if updated != nil {
				if err := sessions.Issue(w, *updated); err != nil {
					http.Error(w, "Failed to update session", http.StatusInternalServerError)
					return
				}
				user = *updated
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, accessTokenKey, access)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, api bool) {
	if api {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Sign in required", "type": "authentication_error"}}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
