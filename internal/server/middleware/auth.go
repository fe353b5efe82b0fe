package middleware

import (
	"net/http"
	"strings"

	"devicetrail/internal/scope"
	"devicetrail/internal/security"
	"devicetrail/internal/server/httpx"
)

// Authenticate reads the bearer token, validates it, and stores the caller
// identity in the request context. Requests without a valid token get 401.
func Authenticate(tokens *security.TokenReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.WriteError(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := tokens.Read(token)
			if err != nil {
				httpx.WriteError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			id := scope.Identity{
				UserID:   claims.Subject,
				DomainID: claims.DomainID,
				Role:     claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
