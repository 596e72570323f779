package middleware

import (
	"net/http"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/observability"
)

// RequireFresh gates operations that must be backed by a password login, not a
// refreshed token.
func RequireFresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, "AUTHORIZATION_REQUIRED", "missing auth context", nil)
			return
		}
		if !claims.Fresh {
			observability.RecordAccessTokenValidation(r.Context(), "not_fresh", "bearer")
			response.Error(w, r, http.StatusUnauthorized, "FRESH_TOKEN_REQUIRED", "fresh token required, log in again", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, "AUTHORIZATION_REQUIRED", "missing auth context", nil)
			return
		}
		if !claims.IsAdmin {
			response.Error(w, r, http.StatusUnauthorized, "ADMIN_REQUIRED", "admin privilege required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
