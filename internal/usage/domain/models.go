// Package domain contains persistence models for the append-only usage log.
package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Action string

const (
	ActionVerify   Action = "verify"
	ActionDownload Action = "download"
	ActionGenerate Action = "generate"
	ActionAPICall  Action = "api_call"
)

var Actions = rules.NewEnum("usage_logs_action", ActionVerify, ActionDownload, ActionGenerate, ActionAPICall)

// UsageLog stores a single verification, download or API event. Rows are never
// updated; every reference is nulled when its target is deleted.
type UsageLog struct {
	ID              uuid.UUID         `json:"id" gorm:"primaryKey"`
	IdentityID      *uuid.UUID        `json:"identity_id,omitempty"`
	ActorPackID     *uuid.UUID        `json:"actor_pack_id,omitempty"`
	LicenseID       *uuid.UUID        `json:"license_id,omitempty"`
	UserID          *uuid.UUID        `json:"user_id,omitempty"`
	Action          Action            `json:"action" gorm:"type:text;not null"`
	Matched         *bool             `json:"matched,omitempty"`
	SimilarityScore *float64          `json:"similarity_score,omitempty"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	IdempotencyKey  *string           `json:"idempotency_key,omitempty" gorm:"type:text"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageLog) TableName() string { return "usage_logs" }

// CountsAsVerification reports whether the event feeds identities.total_verifications.
func (l UsageLog) CountsAsVerification() bool {
	return l.Action == ActionVerify && l.Matched != nil && *l.Matched && l.IdentityID != nil
}

// CountsAsDownload reports whether the event feeds actor_packs.total_downloads.
func (l UsageLog) CountsAsDownload() bool {
	return l.Action == ActionDownload && l.ActorPackID != nil
}

type UsageCursor struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

type ListFilter struct {
	IdentityID  *uuid.UUID
	ActorPackID *uuid.UUID
	Action      string
	Cursor      *UsageCursor
	Limit       int
}
