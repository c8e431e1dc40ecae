package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/omgplatform/gameserver/internal/api/apierr"
	"github.com/omgplatform/gameserver/internal/token"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Auth creates bearer-token authentication middleware. Requests with a
// verifiable token continue with the token's subject attached as the
// request principal; everything else gets a 401. Public paths bypass
// this middleware entirely by not being wrapped in it.
func Auth(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			subject, err := codec.Verify(raw)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer pulls the token out of the Authorization header
func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Principal returns the authenticated subject from the request context,
// or "" if the auth middleware was not applied.
func Principal(ctx context.Context) string {
	subject, _ := ctx.Value(principalContextKey).(string)
	return subject
}
