package repository

import (
	"context"

	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const payoutColumns = `id, user_id, reference, period, amount, fee, net_amount, status,
	destination_account, failure_reason, processed_at, created_at, updated_at`

type repo struct{}

func Provide() payoutdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payout *payoutdomain.Payout) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payouts (`+payoutColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payout.ID,
		payout.UserID,
		payout.Reference,
		payout.Period,
		payout.Amount,
		payout.Fee,
		payout.NetAmount,
		payout.Status,
		payout.DestinationAccount,
		payout.FailureReason,
		payout.ProcessedAt,
		payout.CreatedAt,
		payout.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*payoutdomain.Payout, error) {
	return r.find(ctx, db, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*payoutdomain.Payout, error) {
	return r.find(ctx, db, id, pkgdb.ForUpdate(db))
}

func (r *repo) find(ctx context.Context, db *gorm.DB, id uuid.UUID, lock string) (*payoutdomain.Payout, error) {
	var payout payoutdomain.Payout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM payouts WHERE id = ?`+lock,
		id,
	).Scan(&payout).Error
	if err != nil {
		return nil, err
	}
	if payout.ID == uuid.Nil {
		return nil, nil
	}
	return &payout, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]payoutdomain.Payout, error) {
	var items []payoutdomain.Payout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM payouts WHERE user_id = ? ORDER BY period DESC, created_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payout *payoutdomain.Payout) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payouts
		 SET status = ?, failure_reason = ?, processed_at = ?, updated_at = ?
		 WHERE id = ?`,
		payout.Status,
		payout.FailureReason,
		payout.ProcessedAt,
		payout.UpdatedAt,
		payout.ID,
	).Error
}
