package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/observability"
	"github.com/mariabakes/breads-rest-api/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
)

// RevocationGate consults the token ledger for every authenticated request.
// A valid signature alone is not enough; a revoked jti is denied.
type RevocationGate interface {
	IsRevoked(jti string, userID uint) (bool, error)
}

func AuthMiddleware(jwtMgr *security.JWTManager, gate RevocationGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, source := bearerToken(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, "AUTHORIZATION_REQUIRED", "missing access token", nil)
				return
			}
			claims, err := jwtMgr.ParseAccessToken(raw)
			if err != nil {
				if errors.Is(err, security.ErrTokenExpired) {
					observability.RecordAccessTokenValidation(r.Context(), "expired", source)
					response.Error(w, r, http.StatusBadRequest, "TOKEN_EXPIRED", "access token expired", nil)
					return
				}
				observability.RecordAccessTokenValidation(r.Context(), "invalid", source)
				response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token", nil)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid", source)
				response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token", nil)
				return
			}
			if gate != nil {
				revoked, err := gate.IsRevoked(claims.ID, userID)
				if err != nil {
					observability.RecordAccessTokenValidation(r.Context(), "gate_error", source)
					response.Error(w, r, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "revocation check unavailable", nil)
					return
				}
				if revoked {
					observability.RecordAccessTokenValidation(r.Context(), "revoked", source)
					response.Error(w, r, http.StatusUnauthorized, "TOKEN_REVOKED", "token has been revoked", nil)
					return
				}
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid", source)
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, string) {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:]), "bearer"
	}
	return "", ""
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}
