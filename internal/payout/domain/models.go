package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

// Payout moves a creator's earnings for one period to an external account.
// At most one non-canceled payout exists per user and period.
type Payout struct {
	ID                 uuid.UUID          `json:"id" gorm:"primaryKey"`
	UserID             *uuid.UUID         `json:"user_id,omitempty"`
	Reference          string             `json:"reference" gorm:"type:text;not null"`
	Period             string             `json:"period" gorm:"type:text;not null"`
	Amount             float64            `json:"amount" gorm:"not null"`
	Fee                float64            `json:"fee" gorm:"not null"`
	NetAmount          *float64           `json:"net_amount,omitempty"`
	Status             rules.PayoutStatus `json:"status" gorm:"type:text;not null"`
	DestinationAccount *string            `json:"destination_account,omitempty" gorm:"type:text"`
	FailureReason      *string            `json:"failure_reason,omitempty" gorm:"type:text"`
	ProcessedAt        *time.Time         `json:"processed_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"not null"`
}

func (Payout) TableName() string { return "payouts" }

func (p Payout) Validate() error {
	v := rules.Validate("payouts").
		Check(rules.PayoutMachine.Validate(p.Status)).
		Positive("amount", p.Amount).
		NonNegative("fee", p.Fee)
	if p.NetAmount != nil {
		v.NonNegative("net_amount", *p.NetAmount).
			AtMost("net_amount", *p.NetAmount, "amount", p.Amount)
	}
	return v.Err()
}
