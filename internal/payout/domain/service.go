package domain

import (
	"context"
	"errors"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

// PeriodLayout is the reference-time layout of Payout.Period.
const PeriodLayout = "2006-01"

type RequestPayoutRequest struct {
	UserID             uuid.UUID `json:"user_id"`
	Period             string    `json:"period"`
	Amount             float64   `json:"amount"`
	Fee                float64   `json:"fee"`
	DestinationAccount *string   `json:"destination_account"`
}

type TransitionRequest struct {
	Status        rules.PayoutStatus `json:"status"`
	FailureReason *string            `json:"failure_reason"`
}

type Service interface {
	Request(ctx context.Context, actorID *uuid.UUID, req RequestPayoutRequest) (Payout, error)
	TransitionStatus(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req TransitionRequest) (Payout, error)
	Get(ctx context.Context, id uuid.UUID) (Payout, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Payout, error)
}

var (
	ErrNotFound      = errors.New("payout_not_found")
	ErrUserNotFound  = errors.New("user_not_found")
	ErrInvalidPeriod = errors.New("invalid_period")
)
