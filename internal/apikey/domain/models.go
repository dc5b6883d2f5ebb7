package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey stores a hashed API credential owned by a user. The plaintext key is
// returned once at creation and never stored.
type APIKey struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"not null"`
	Name       string     `json:"name" gorm:"type:text;not null"`
	KeyPrefix  string     `json:"key_prefix" gorm:"column:key_prefix;type:text;not null"`
	KeyHash    string     `json:"-" gorm:"column:key_hash;type:text;not null"`
	IsActive   bool       `json:"is_active" gorm:"column:is_active;not null;default:true"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" gorm:"column:revoked_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }
