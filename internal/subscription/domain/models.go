// Package domain contains persistence models for user plan subscriptions.
package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
)

// StatusMachine governs subscriptions.status. Canceling the owner cancels any active plan.
var StatusMachine = rules.NewMachine("subscriptions_status", map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusActive:   {SubscriptionStatusPastDue, SubscriptionStatusCanceled, SubscriptionStatusExpired},
	SubscriptionStatusPastDue:  {SubscriptionStatusActive, SubscriptionStatusCanceled, SubscriptionStatusExpired},
	SubscriptionStatusCanceled: nil,
	SubscriptionStatusExpired:  nil,
})

// Subscription captures a user's plan and its usage limits. A user has at most
// one ACTIVE subscription.
type Subscription struct {
	ID                 uuid.UUID          `json:"id" gorm:"primaryKey"`
	UserID             uuid.UUID          `json:"user_id" gorm:"not null;index"`
	Plan               string             `json:"plan" gorm:"type:text;not null"`
	Status             SubscriptionStatus `json:"status" gorm:"type:text;not null"`
	Amount             float64            `json:"amount" gorm:"not null"`
	VerificationsLimit *int64             `json:"verifications_limit,omitempty"`
	LicensesLimit      *int64             `json:"licenses_limit,omitempty"`
	CurrentPeriodStart time.Time          `json:"current_period_start" gorm:"not null"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

func (s Subscription) Validate() error {
	v := rules.Validate("subscriptions").
		Required("plan", s.Plan).
		Check(StatusMachine.Validate(s.Status)).
		NonNegative("amount", s.Amount)
	if s.VerificationsLimit != nil {
		v.NonNegativeInt("verifications_limit", *s.VerificationsLimit)
	}
	if s.LicensesLimit != nil {
		v.NonNegativeInt("licenses_limit", *s.LicensesLimit)
	}
	return v.Err()
}
