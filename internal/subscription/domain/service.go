package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type CreateSubscriptionRequest struct {
	UserID             uuid.UUID  `json:"user_id"`
	Plan               string     `json:"plan"`
	Amount             float64    `json:"amount"`
	VerificationsLimit *int64     `json:"verifications_limit"`
	LicensesLimit      *int64     `json:"licenses_limit"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
}

type UpdateLimitsRequest struct {
	VerificationsLimit *int64 `json:"verifications_limit"`
	LicensesLimit      *int64 `json:"licenses_limit"`
}

type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateSubscriptionRequest) (Subscription, error)
	TransitionStatus(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, status SubscriptionStatus) (Subscription, error)
	Cancel(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (Subscription, error)
	UpdateLimits(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req UpdateLimitsRequest) (Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (Subscription, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error)
}

var (
	ErrNotFound     = errors.New("subscription_not_found")
	ErrUserNotFound = errors.New("user_not_found")
	ErrInvalidPlan  = errors.New("invalid_plan")
)
