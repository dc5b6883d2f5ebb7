package domain

import (
	"context"
	"errors"
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

type CreateLicenseRequest struct {
	IdentityID         uuid.UUID            `json:"identity_id"`
	LicenseeID         *uuid.UUID           `json:"licensee_id"`
	UsageType          UsageType            `json:"usage_type"`
	LicenseType        LicenseType          `json:"license_type"`
	PriceUSD           float64              `json:"price_usd"`
	CreatorPayoutUSD   *float64             `json:"creator_payout_usd"`
	PlatformFeePercent *float64             `json:"platform_fee_percent"`
	MaxOutputs         *int64               `json:"max_outputs"`
	MaxImpressions     *int64               `json:"max_impressions"`
	PaymentStatus      *rules.PaymentStatus `json:"payment_status"`
	ValidFrom          *time.Time           `json:"valid_from"`
	ValidUntil         *time.Time           `json:"valid_until"`
}

// UpdateLicenseRequest applies only the non-nil fields.
type UpdateLicenseRequest struct {
	PaymentStatus      *rules.PaymentStatus `json:"payment_status"`
	PriceUSD           *float64             `json:"price_usd"`
	CreatorPayoutUSD   *float64             `json:"creator_payout_usd"`
	PlatformFeePercent *float64             `json:"platform_fee_percent"`
	MaxOutputs         *int64               `json:"max_outputs"`
	CurrentUses        *int64               `json:"current_uses"`
	MaxImpressions     *int64               `json:"max_impressions"`
	CurrentImpressions *int64               `json:"current_impressions"`
	ValidUntil         *time.Time           `json:"valid_until"`
	IsActive           *bool                `json:"is_active"`
}

type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateLicenseRequest) (License, error)
	Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req UpdateLicenseRequest) (License, error)
	Deactivate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (License, error)
	Get(ctx context.Context, id uuid.UUID) (License, error)
	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]License, error)
}

var (
	ErrNotFound         = errors.New("license_not_found")
	ErrIdentityNotFound = errors.New("identity_not_found")
)
