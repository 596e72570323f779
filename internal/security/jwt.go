package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mariabakes/breads-rest-api/internal/domain"
)

var (
	// ErrTokenExpired is returned for structurally valid tokens whose exp has
	// passed. Callers report it separately from ErrTokenInvalid so clients know
	// to refresh instead of logging in again.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type Claims struct {
	TokenType string `json:"token_type"`
	Fresh     bool   `json:"fresh"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the identity the token was minted for.
func (c *Claims) UserID() (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(c.Subject, "%d", &id); err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

type JWTManager struct {
	issuer        string
	audience      string
	accessSecret  []byte
	refreshSecret []byte
}

func NewJWTManager(issuer, audience, accessSecret, refreshSecret string) *JWTManager {
	return &JWTManager{
		issuer:        issuer,
		audience:      audience,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// SignAccessToken mints an access token and returns the signed string together
// with the claims it carries, so the caller can ledger the jti and expiry
// without re-parsing.
func (m *JWTManager) SignAccessToken(userID uint, isAdmin, fresh bool, ttl time.Duration) (string, *Claims, error) {
	claims := m.newClaims(domain.TokenTypeAccess, userID, ttl)
	claims.Fresh = fresh
	claims.IsAdmin = isAdmin
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (m *JWTManager) SignRefreshToken(userID uint, ttl time.Duration) (string, *Claims, error) {
	claims := m.newClaims(domain.TokenTypeRefresh, userID, ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (m *JWTManager) ParseAccessToken(raw string) (*Claims, error) {
	return m.parse(raw, m.accessSecret, domain.TokenTypeAccess)
}

func (m *JWTManager) ParseRefreshToken(raw string) (*Claims, error) {
	return m.parse(raw, m.refreshSecret, domain.TokenTypeRefresh)
}

func (m *JWTManager) newClaims(tokenType string, userID uint, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{m.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
}

func (m *JWTManager) parse(raw string, secret []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != tokenType {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
