package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateRequest struct {
	UserID  uuid.UUID      `json:"user_id"`
	Type    Type           `json:"type"`
	Title   string         `json:"title"`
	Body    *string        `json:"body"`
	Payload map[string]any `json:"payload"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Notification, error)
	// CreateTx writes the notification inside the caller's transaction.
	CreateTx(ctx context.Context, tx *gorm.DB, req CreateRequest) (Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	ListUnread(ctx context.Context, userID uuid.UUID) ([]Notification, error)
}

var (
	ErrNotFound     = errors.New("notification_not_found")
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidTitle = errors.New("invalid_title")
)
