package domain

import (
	"context"
	"errors"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

type CreateIdentityRequest struct {
	UserID             uuid.UUID `json:"user_id"`
	DisplayName        string    `json:"display_name"`
	Bio                *string   `json:"bio"`
	AllowCommercialUse bool      `json:"allow_commercial_use"`
}

// UpdateIdentityRequest applies only the non-nil fields. Status goes through
// the identity state machine.
type UpdateIdentityRequest struct {
	DisplayName        *string               `json:"display_name"`
	Bio                *string               `json:"bio"`
	AllowCommercialUse *bool                 `json:"allow_commercial_use"`
	Status             *rules.IdentityStatus `json:"status"`
}

type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateIdentityRequest) (Identity, error)
	Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req UpdateIdentityRequest) (Identity, error)
	TransitionStatus(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, to rules.IdentityStatus) (Identity, error)
	SoftDelete(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error
	Purge(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Identity, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Identity, error)
}

var (
	ErrNotFound           = errors.New("identity_not_found")
	ErrOwnerNotFound      = errors.New("owner_not_found")
	ErrInvalidDisplayName = errors.New("invalid_display_name")
)
