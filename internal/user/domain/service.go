package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
	Role        Role    `json:"role"`
	Tier        Tier    `json:"tier"`
}

// UpdateUserRequest applies only the non-nil fields.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	Role        *Role   `json:"role"`
	Tier        *Tier   `json:"tier"`
	IsActive    *bool   `json:"is_active"`
}

// Service mutates users. actorID attributes the audit trail; nil means the system.
type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateUserRequest) (User, error)
	Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req UpdateUserRequest) (User, error)
	SoftDelete(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error
	Purge(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (User, error)
}

var (
	ErrNotFound     = errors.New("user_not_found")
	ErrInvalidEmail = errors.New("invalid_email")
)
