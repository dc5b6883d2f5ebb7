package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

type Role string

const (
	RoleUser    Role = "USER"
	RoleCreator Role = "CREATOR"
	RoleAdmin   Role = "ADMIN"
)

type Tier string

const (
	TierFree       Tier = "FREE"
	TierPro        Tier = "PRO"
	TierEnterprise Tier = "ENTERPRISE"
)

var (
	Roles = rules.NewEnum("users_role", RoleUser, RoleCreator, RoleAdmin)
	Tiers = rules.NewEnum("users_tier", TierFree, TierPro, TierEnterprise)
)

// User is a platform account. Soft-deleted users keep their row with DeletedAt set.
type User struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey"`
	Email       string     `json:"email" gorm:"type:text;not null"`
	DisplayName *string    `json:"display_name,omitempty" gorm:"type:text"`
	Role        Role       `json:"role" gorm:"type:text;not null"`
	Tier        Tier       `json:"tier" gorm:"type:text;not null"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u User) IsDeleted() bool {
	return u.DeletedAt != nil
}
