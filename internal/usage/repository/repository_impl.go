package repository

import (
	"context"
	"strings"

	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const usageColumns = `id, identity_id, actor_pack_id, license_id, user_id, action, matched,
	similarity_score, metadata, idempotency_key, created_at`

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, log *usagedomain.UsageLog) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO usage_logs (`+usageColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING`,
		log.ID,
		log.IdentityID,
		log.ActorPackID,
		log.LicenseID,
		log.UserID,
		log.Action,
		log.Matched,
		log.SimilarityScore,
		log.Metadata,
		log.IdempotencyKey,
		log.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*usagedomain.UsageLog, error) {
	var log usagedomain.UsageLog
	err := db.WithContext(ctx).Raw(
		`SELECT `+usageColumns+` FROM usage_logs WHERE idempotency_key = ? LIMIT 1`,
		key,
	).Scan(&log).Error
	if err != nil {
		return nil, err
	}
	if log.ID == uuid.Nil {
		return nil, nil
	}
	return &log, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter usagedomain.ListFilter) ([]*usagedomain.UsageLog, error) {
	var logs []*usagedomain.UsageLog
	stmt := db.WithContext(ctx).Model(&usagedomain.UsageLog{})

	if filter.IdentityID != nil {
		stmt = stmt.Where("identity_id = ?", *filter.IdentityID)
	}
	if filter.ActorPackID != nil {
		stmt = stmt.Where("actor_pack_id = ?", *filter.ActorPackID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("((created_at < ?) OR (created_at = ? AND id < ?))",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
