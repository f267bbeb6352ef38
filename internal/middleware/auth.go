package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fridays-bar/api/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// Identify attaches staff claims to the request context when a valid
// bearer token is present. It never rejects a request: role selection is
// a trusted client preference here, not a security boundary, so the
// engine only cares about who the actor says they are.
func Identify(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				if claims, err := auth.ValidateToken(jwtSecret, parts[1]); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
