package repository

import (
	"context"
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const transactionColumns = `id, user_id, license_id, type, status, amount, currency, provider_ref, created_at, updated_at`

type repo struct{}

func Provide() transactiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *transactiondomain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.UserID,
		txn.LicenseID,
		txn.Type,
		txn.Status,
		txn.Amount,
		txn.Currency,
		txn.ProviderRef,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*transactiondomain.Transaction, error) {
	var txn transactiondomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		id,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == uuid.Nil {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status rules.PaymentStatus, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE transactions SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]transactiondomain.Transaction, error) {
	var items []transactiondomain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
