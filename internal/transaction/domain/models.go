package domain

import (
	"context"
	"errors"
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Type string

const (
	TypePurchase     Type = "PURCHASE"
	TypePayout       Type = "PAYOUT"
	TypeRefund       Type = "REFUND"
	TypeFee          Type = "FEE"
	TypeSubscription Type = "SUBSCRIPTION"
	TypeCredit       Type = "CREDIT"
)

var Types = rules.NewEnum("transactions_type", TypePurchase, TypePayout, TypeRefund, TypeFee, TypeSubscription, TypeCredit)

// Statuses mirror the payment status set without its transition table: a
// transaction records what the payment provider reported.
var Statuses = rules.NewEnum("transactions_status",
	rules.PaymentPending,
	rules.PaymentProcessing,
	rules.PaymentCompleted,
	rules.PaymentFailed,
	rules.PaymentRefunded,
	rules.PaymentDisputed,
)

// Transaction is a money movement ledger entry. Rows outlive their user and license.
type Transaction struct {
	ID          uuid.UUID           `json:"id" gorm:"primaryKey"`
	UserID      *uuid.UUID          `json:"user_id,omitempty"`
	LicenseID   *uuid.UUID          `json:"license_id,omitempty"`
	Type        Type                `json:"type" gorm:"type:text;not null"`
	Status      rules.PaymentStatus `json:"status" gorm:"type:text;not null"`
	Amount      float64             `json:"amount" gorm:"not null"`
	Currency    string              `json:"currency" gorm:"type:text;not null"`
	ProviderRef *string             `json:"provider_ref,omitempty" gorm:"type:text"`
	CreatedAt   time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time           `json:"updated_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }

func (t Transaction) Validate() error {
	return rules.Validate("transactions").
		Check(Types.Validate(t.Type)).
		Check(Statuses.Validate(t.Status)).
		NonNegative("amount", t.Amount).
		Required("currency", t.Currency).
		Err()
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Transaction, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status rules.PaymentStatus, at time.Time) (int64, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Transaction, error)
}

type RecordRequest struct {
	UserID      *uuid.UUID           `json:"user_id"`
	LicenseID   *uuid.UUID           `json:"license_id"`
	Type        Type                 `json:"type"`
	Status      *rules.PaymentStatus `json:"status"`
	Amount      float64              `json:"amount"`
	Currency    string               `json:"currency"`
	ProviderRef *string              `json:"provider_ref"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status rules.PaymentStatus) (Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Transaction, error)
}

var ErrNotFound = errors.New("transaction_not_found")
