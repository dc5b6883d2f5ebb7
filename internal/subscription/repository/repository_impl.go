package repository

import (
	"context"

	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const subscriptionColumns = `id, user_id, plan, status, amount, verifications_limit, licenses_limit,
	current_period_start, current_period_end, canceled_at, created_at, updated_at`

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.UserID,
		subscription.Plan,
		subscription.Status,
		subscription.Amount,
		subscription.VerificationsLimit,
		subscription.LicensesLimit,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CanceledAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, `id = ?`, "", id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, `id = ?`, pkgdb.ForUpdate(db), id)
}

func (r *repo) FindActiveByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, `user_id = ? AND status = ?`, "", userID, subscriptiondomain.SubscriptionStatusActive)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where, lock string, args ...any) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where+` LIMIT 1`+lock,
		args...,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == uuid.Nil {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]subscriptiondomain.Subscription, error) {
	var items []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListActiveByUserForUpdate(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]subscriptiondomain.Subscription, error) {
	var items []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = ? AND status = ?
		 ORDER BY id`+pkgdb.ForUpdate(db),
		userID,
		subscriptiondomain.SubscriptionStatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET plan = ?, status = ?, amount = ?, verifications_limit = ?, licenses_limit = ?,
		     current_period_end = ?, canceled_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.Plan,
		subscription.Status,
		subscription.Amount,
		subscription.VerificationsLimit,
		subscription.LicensesLimit,
		subscription.CurrentPeriodEnd,
		subscription.CanceledAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}
