package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing is the marketplace entry of an identity. At most one listing per
// identity is active at a time.
type Listing struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey"`
	IdentityID   uuid.UUID `json:"identity_id" gorm:"not null"`
	Title        string    `json:"title" gorm:"type:text;not null"`
	Slug         string    `json:"slug" gorm:"type:text;not null"`
	Description  *string   `json:"description,omitempty" gorm:"type:text"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	LicenseCount int64     `json:"license_count" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (Listing) TableName() string { return "listings" }
