package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	Revoke(ctx context.Context, userID, id uuid.UUID) error
	// Authenticate resolves a plaintext key to its active, unexpired record.
	Authenticate(ctx context.Context, raw string) (*APIKey, error)
}

type CreateRequest struct {
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type Response struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

type SecretResponse struct {
	ID     uuid.UUID `json:"id"`
	APIKey string    `json:"api_key"`
}

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidKey  = errors.New("invalid_api_key")
	ErrNotFound    = errors.New("not_found")
)
