package handler

import (
	"errors"
	"net/http"

	"github.com/mariabakes/breads-rest-api/internal/http/middleware"
	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/observability"
	"github.com/mariabakes/breads-rest-api/internal/security"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		observability.RecordAuthRegister("invalid")
		return
	}
	user, err := h.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			observability.RecordAuthRegister("conflict")
			response.Error(w, r, http.StatusConflict, "USER_EXISTS", "username or email already taken", nil)
			return
		}
		observability.RecordAuthRegister("error")
		response.Internal(w, r)
		return
	}
	observability.RecordAuthRegister("success")
	observability.Audit(r, "auth.register", "user_id", user.ID, "username", user.Username)
	response.JSON(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		observability.RecordAuthLogin("invalid")
		return
	}
	pair, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.RecordAuthLogin("denied")
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", nil)
			return
		}
		observability.RecordAuthLogin("error")
		response.Internal(w, r)
		return
	}
	observability.RecordAuthLogin("success")
	observability.Audit(r, "auth.login", "username", req.Username)
	response.JSON(w, r, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeAndValidate(w, r, &req) {
		observability.RecordAuthRefresh("invalid")
		return
	}
	pair, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			observability.RecordAuthRefresh("expired")
			response.Error(w, r, http.StatusBadRequest, "TOKEN_EXPIRED", "refresh token expired", nil)
		case errors.Is(err, service.ErrTokenRevoked):
			observability.RecordAuthRefresh("revoked")
			response.Error(w, r, http.StatusUnauthorized, "TOKEN_REVOKED", "refresh token has been revoked", nil)
		case errors.Is(err, service.ErrInvalidRefreshToken):
			observability.RecordAuthRefresh("denied")
			response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid refresh token", nil)
		default:
			observability.RecordAuthRefresh("error")
			response.Internal(w, r)
		}
		return
	}
	observability.RecordAuthRefresh("success")
	response.JSON(w, r, http.StatusOK, pair)
}

// Logout revokes the presented access token's ledger row. The middleware has
// already verified the token and passed the revocation gate.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		observability.RecordAuthLogout("error")
		response.Error(w, r, http.StatusUnauthorized, "AUTHORIZATION_REQUIRED", "missing auth context", nil)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		observability.RecordAuthLogout("error")
		response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token", nil)
		return
	}
	if err := h.auth.Logout(claims.ID, userID); err != nil {
		observability.RecordAuthLogout("error")
		response.Internal(w, r)
		return
	}
	observability.RecordAuthLogout("success")
	observability.Audit(r, "auth.logout", "user_id", userID, "jti", claims.ID)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "access token revoked"})
}

// Tokens lists the caller's live ledger rows, handy for spotting sessions
// that should be logged out.
func (h *AuthHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHORIZATION_REQUIRED", "missing auth context", nil)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token", nil)
		return
	}
	tokens, err := h.auth.ActiveTokens(userID)
	if err != nil {
		response.Internal(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, tokens)
}
