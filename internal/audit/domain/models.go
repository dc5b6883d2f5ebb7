package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// TrackedTables lists the tables whose mutations are audited.
var TrackedTables = map[string]struct{}{
	"identities":    {},
	"licenses":      {},
	"users":         {},
	"subscriptions": {},
	"payouts":       {},
}

// ExcludedFields never take part in snapshots; timestamp-only touches are not audited.
var ExcludedFields = []string{"created_at", "updated_at"}

type AuditLog struct {
	ID           snowflake.ID   `json:"id,string" gorm:"primaryKey"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	Action       Action         `json:"action" gorm:"type:text;not null"`
	ResourceType string         `json:"resource_type" gorm:"type:text;not null"`
	ResourceID   uuid.UUID      `json:"resource_id" gorm:"not null"`
	OldValues    datatypes.JSON `json:"old_values,omitempty"`
	NewValues    datatypes.JSON `json:"new_values,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	ActorID      *uuid.UUID
	StartAt      *time.Time
	EndAt        *time.Time
	Cursor       *AuditCursor
	Limit        int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}
