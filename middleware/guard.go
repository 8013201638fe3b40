// Package middleware provides net/http integration for mailgate-protected
// routes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	mailgate "github.com/dvail-labs/mailgate"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the authenticated result placed in the
// request context by [RequireSession].
func AuthResultFromContext(ctx context.Context) (*mailgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*mailgate.AuthResult)
	return res, ok
}

// RequireSession gates a handler on a live authenticated session. Requests
// without a valid bearer token, or whose session has been logged out or
// expired, receive 401 without detail.
func RequireSession(engine *mailgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
