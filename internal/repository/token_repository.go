package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/observability"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository is the ledger of every token the service has signed.
// Revocation is monotonic: Revoke flips revoked false->true and nothing
// ever flips it back.
type TokenRepository interface {
	Create(t *domain.Token) error
	FindByJTI(jti string, userID uint) (*domain.Token, error)
	IsRevoked(jti string, userID uint) (bool, error)
	Revoke(jti string, userID uint) (bool, error)
	ListActiveByUserID(userID uint) ([]domain.Token, error)
	DeleteExpired() (int64, error)
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Create(t *domain.Token) error {
	err := r.db.Create(t).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "create", "success")
	return nil
}

func (r *GormTokenRepository) FindByJTI(jti string, userID uint) (*domain.Token, error) {
	var t domain.Token
	err := r.db.Where("jti = ? AND user_id = ?", jti, userID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "token", "find_by_jti", "not_found")
			return nil, ErrTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "token", "find_by_jti", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "find_by_jti", "success")
	return &t, nil
}

// IsRevoked reports the revoked flag of the ledger row for (jti, userID).
// An absent row is surfaced as ErrTokenNotFound so the caller can apply its
// fail-open or fail-closed policy instead of inheriting one from here.
func (r *GormTokenRepository) IsRevoked(jti string, userID uint) (bool, error) {
	t, err := r.FindByJTI(jti, userID)
	if err != nil {
		return false, err
	}
	return t.Revoked, nil
}

// Revoke marks the ledger row revoked. The returned bool reports whether this
// call changed the row; revoking an already revoked token is a no-op, not an
// error. A missing row returns ErrTokenNotFound.
func (r *GormTokenRepository) Revoke(jti string, userID uint) (bool, error) {
	now := time.Now().UTC()
	res := r.db.Model(&domain.Token{}).
		Where("jti = ? AND user_id = ? AND revoked = ?", jti, userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "revoke", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish "already revoked" from "never ledgered".
		if _, err := r.FindByJTI(jti, userID); err != nil {
			observability.RecordRepositoryOperation(context.Background(), "token", "revoke", "not_found")
			return false, err
		}
		observability.RecordRepositoryOperation(context.Background(), "token", "revoke", "success")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "revoke", "success")
	return true, nil
}

func (r *GormTokenRepository) ListActiveByUserID(userID uint) ([]domain.Token, error) {
	var tokens []domain.Token
	err := r.db.Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "list_active_by_user_id", "error")
		return tokens, err
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "list_active_by_user_id", "success")
	return tokens, nil
}

// DeleteExpired removes rows whose embedded expiry has passed. Revoked state
// on live tokens is never touched here.
func (r *GormTokenRepository) DeleteExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.Token{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "token", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "token", "delete_expired", "success")
	return res.RowsAffected, nil
}
