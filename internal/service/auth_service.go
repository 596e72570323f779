package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/mailer"
	"github.com/mariabakes/breads-rest-api/internal/repository"
	"github.com/mariabakes/breads-rest-api/internal/security"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("username or email already taken")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenRevoked        = errors.New("token revoked")

	// ErrLedgerInconsistent means a token that passed signature verification and
	// the revocation gate has no ledger row at logout. Issuance writes the row
	// before the token leaves the process, so this can only be a storage-level
	// inconsistency.
	ErrLedgerInconsistent = errors.New("token ledger inconsistent")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// FailClosed rejects tokens whose jti has no ledger row. The default false
	// trusts any well-signed token.
	FailClosed bool
}

type AuthService struct {
	jwtMgr     *security.JWTManager
	users      repository.UserRepository
	tokens     repository.TokenRepository
	mail       mailer.Enqueuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	failClosed bool
}

func NewAuthService(jwtMgr *security.JWTManager, users repository.UserRepository, tokens repository.TokenRepository, mail mailer.Enqueuer, cfg AuthConfig) *AuthService {
	return &AuthService{
		jwtMgr:     jwtMgr,
		users:      users,
		tokens:     tokens,
		mail:       mail,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		failClosed: cfg.FailClosed,
	}
}

// Register creates the account and queues the welcome email. Mail delivery is
// best effort and never blocks or fails registration.
func (s *AuthService) Register(username, email, password string) (*domain.User, error) {
	taken, err := s.users.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	if s.mail != nil {
		s.mail.Enqueue(mailer.Message{
			To:      user.Email,
			Subject: "Successfully signed up",
			Body:    "Welcome! Thank you for signing up to the Breads REST API!",
		})
	}
	return user, nil
}

// Login verifies credentials and mints a fresh access token plus a refresh
// token. Both are ledgered before being returned; a ledger write failure
// aborts the whole issuance so no signed token ever leaves without a row.
func (s *AuthService) Login(username, password string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	access, err := s.mintAccessToken(user.ID, user.IsAdmin, true)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.jwtMgr.SignRefreshToken(user.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.ledger(refreshClaims, user.ID); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid, non-revoked refresh token for a new access token.
// The new token is not fresh: it will not pass freshness-gated operations.
func (s *AuthService) Refresh(rawRefreshToken string) (*TokenPair, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(rawRefreshToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, security.ErrTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	revoked, err := s.IsRevoked(claims.ID, userID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	// refresh tokens are single-use: the presented jti is retired before the
	// replacement access token is minted. A missing row means the token was
	// admitted by the fail-open policy and there is nothing to retire.
	if _, err := s.tokens.Revoke(claims.ID, userID); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return nil, err
	}

	access, err := s.mintAccessToken(user.ID, user.IsAdmin, false)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access}, nil
}

// IsRevoked is the revocation gate predicate, consulted on every
// authenticated request. An absent ledger row is resolved by the configured
// fail-open/fail-closed policy.
func (s *AuthService) IsRevoked(jti string, userID uint) (bool, error) {
	revoked, err := s.tokens.IsRevoked(jti, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			if s.failClosed {
				slog.Warn("rejecting unledgered token", "jti", jti, "user_id", userID)
			}
			return s.failClosed, nil
		}
		return false, err
	}
	return revoked, nil
}

// Logout revokes the presented token's ledger row. The token already passed
// the gate, so a missing row is a fatal inconsistency, not a user error.
func (s *AuthService) Logout(jti string, userID uint) error {
	_, err := s.tokens.Revoke(jti, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			slog.Error("no ledger row for authenticated token at logout", "jti", jti, "user_id", userID)
			return fmt.Errorf("%w: no ledger row for jti %s", ErrLedgerInconsistent, jti)
		}
		return err
	}
	return nil
}

func (s *AuthService) ActiveTokens(userID uint) ([]domain.Token, error) {
	return s.tokens.ListActiveByUserID(userID)
}

func (s *AuthService) mintAccessToken(userID uint, isAdmin, fresh bool) (string, error) {
	access, claims, err := s.jwtMgr.SignAccessToken(userID, isAdmin, fresh, s.accessTTL)
	if err != nil {
		return "", err
	}
	if err := s.ledger(claims, userID); err != nil {
		return "", err
	}
	return access, nil
}

// ledger persists a minted token. ExpiresAt is copied straight from the signed
// claims so the row and the token can never disagree about expiry.
func (s *AuthService) ledger(claims *security.Claims, userID uint) error {
	return s.tokens.Create(&domain.Token{
		JTI:       claims.ID,
		TokenType: claims.TokenType,
		UserID:    userID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
