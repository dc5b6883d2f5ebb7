package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Type string

const (
	TypePayoutCompleted  Type = "payout_completed"
	TypePayoutFailed     Type = "payout_failed"
	TypeLicensePurchased Type = "license_purchased"
	TypeTrainingFinished Type = "training_finished"
)

type Notification struct {
	ID        uuid.UUID         `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID         `json:"user_id" gorm:"not null"`
	Type      Type              `json:"type" gorm:"type:text;not null"`
	Title     string            `json:"title" gorm:"type:text;not null"`
	Body      *string           `json:"body,omitempty" gorm:"type:text"`
	Payload   datatypes.JSONMap `json:"payload,omitempty"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null"`
}

func (Notification) TableName() string { return "notifications" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	MarkRead(ctx context.Context, db *gorm.DB, userID, id uuid.UUID, at time.Time) (int64, error)
	ListUnread(ctx context.Context, db *gorm.DB, userID uuid.UUID, limit int) ([]Notification, error)
}
