// Package middleware provides HTTP middleware shared across routes.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/velumlaw/counsel/internal/logger"
	"github.com/velumlaw/counsel/internal/service"
)

type accountCtxKey struct{}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// Auth returns middleware that resolves the presented API key to an account
// id and stores it in the request context. WebSocket clients cannot set
// headers, so /ws accepts the key via the "token" query parameter.
func Auth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			presented := ""
			if r.URL.Path == "/ws" {
				presented = r.URL.Query().Get("token")
			} else {
				authHeader := r.Header.Get("Authorization")
				token := strings.TrimPrefix(authHeader, "Bearer ")
				if token != authHeader {
					presented = token
				}
			}
			if presented == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			accountID, err := authSvc.VerifyKey(r.Context(), presented)
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountCtxKey{}, accountID)
			ctx = logger.WithAccountID(ctx, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext returns the authenticated account id, or "" when the
// request was not authenticated.
func AccountFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountCtxKey{}).(string)
	return id
}
