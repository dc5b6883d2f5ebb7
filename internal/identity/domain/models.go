package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

// Identity is a creator-owned likeness. The Total* counters are denormalized
// from usage logs and licenses and are only written through relative increments
// or by reconciliation.
type Identity struct {
	ID                 uuid.UUID            `json:"id" gorm:"primaryKey"`
	UserID             uuid.UUID            `json:"user_id" gorm:"not null"`
	DisplayName        string               `json:"display_name" gorm:"type:text;not null"`
	Bio                *string              `json:"bio,omitempty" gorm:"type:text"`
	Status             rules.IdentityStatus `json:"status" gorm:"type:text;not null"`
	AllowCommercialUse bool                 `json:"allow_commercial_use" gorm:"not null"`
	TotalVerifications int64                `json:"total_verifications" gorm:"not null"`
	TotalLicenses      int64                `json:"total_licenses" gorm:"not null"`
	TotalRevenue       float64              `json:"total_revenue" gorm:"not null"`
	CreatedAt          time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time            `json:"updated_at" gorm:"not null"`
	DeletedAt          *time.Time           `json:"deleted_at,omitempty"`
}

func (Identity) TableName() string { return "identities" }

func (i Identity) IsDeleted() bool {
	return i.DeletedAt != nil
}
