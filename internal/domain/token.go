package domain

import "time"

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Token is one row of the token ledger. Every access and refresh token the
// service signs gets a row here before the signed string leaves the process.
type Token struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	JTI       string     `gorm:"size:64;not null;uniqueIndex:idx_tokens_jti_user" json:"jti"`
	TokenType string     `gorm:"size:16;not null" json:"token_type"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_tokens_jti_user;index" json:"user_id"`
	IssuedAt  time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	Revoked   bool       `gorm:"not null;default:false" json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
