package domain

import (
	"context"
	"errors"

	"github.com/actorhub/actorhub/pkg/db/pagination"
	"github.com/google/uuid"
)

type RecordUsageRequest struct {
	IdentityID      *uuid.UUID     `json:"identity_id"`
	ActorPackID     *uuid.UUID     `json:"actor_pack_id"`
	LicenseID       *uuid.UUID     `json:"license_id"`
	UserID          *uuid.UUID     `json:"user_id"`
	Action          Action         `json:"action"`
	Matched         *bool          `json:"matched"`
	SimilarityScore *float64       `json:"similarity_score"`
	Metadata        map[string]any `json:"metadata"`
	IdempotencyKey  *string        `json:"idempotency_key"`
}

type ListUsageRequest struct {
	pagination.Pagination
	IdentityID  string `json:"identity_id"`
	ActorPackID string `json:"actor_pack_id"`
	Action      string `json:"action"`
}

type ListUsageResponse struct {
	pagination.PageInfo
	UsageLogs []UsageLog `json:"usage_logs"`
}

type Service interface {
	// Record appends a usage event and applies its counter increments. A retried
	// idempotency key returns the stored event without counting it again.
	Record(ctx context.Context, req RecordUsageRequest) (*UsageLog, error)
	List(ctx context.Context, req ListUsageRequest) (ListUsageResponse, error)
}

var (
	ErrInvalidIdentity        = errors.New("invalid_identity")
	ErrInvalidActorPack       = errors.New("invalid_actor_pack")
	ErrInvalidAction          = errors.New("invalid_action")
	ErrInvalidSimilarityScore = errors.New("invalid_similarity_score")
	ErrInvalidPageToken       = errors.New("invalid_page_token")
)
