package domain

import (
	"context"
	"errors"
	"time"

	"github.com/actorhub/actorhub/pkg/db/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action       string
	ResourceType string
	ResourceID   string
	ActorID      string
	StartAt      *time.Time
	EndAt        *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service writes audit rows inside the caller's transaction. before and after
// are entity structs; they are snapshotted through their json tags.
type Service interface {
	RecordInsert(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, resourceType string, resourceID uuid.UUID, after any) error
	RecordUpdate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, resourceType string, resourceID uuid.UUID, before, after any) error
	RecordDelete(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, resourceType string, resourceID uuid.UUID, before any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidResource  = errors.New("invalid_resource")
)
