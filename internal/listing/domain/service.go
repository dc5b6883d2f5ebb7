package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const CodeIdentityDeleted = "identity_deleted"

type CreateListingRequest struct {
	IdentityID  uuid.UUID `json:"identity_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
}

type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateListingRequest) (Listing, error)
	Activate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (Listing, error)
	Deactivate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (Listing, error)
	Get(ctx context.Context, id uuid.UUID) (Listing, error)
}

var (
	ErrNotFound         = errors.New("listing_not_found")
	ErrIdentityNotFound = errors.New("identity_not_found")
	ErrInvalidTitle     = errors.New("invalid_title")
)
