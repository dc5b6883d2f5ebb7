package repository

import (
	"context"
	"time"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const apiKeyColumns = `id, user_id, name, key_prefix, key_hash, is_active, expires_at, last_used_at, revoked_at, created_at, updated_at`

type repo struct{}

func Provide() apikeydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO api_keys (`+apiKeyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.ID,
		key.UserID,
		key.Name,
		key.KeyPrefix,
		key.KeyHash,
		key.IsActive,
		key.ExpiresAt,
		key.LastUsedAt,
		key.RevokedAt,
		key.CreatedAt,
		key.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Exec(
		`UPDATE api_keys
		 SET name = ?, is_active = ?, expires_at = ?, last_used_at = ?, revoked_at = ?, updated_at = ?
		 WHERE id = ?`,
		key.Name,
		key.IsActive,
		key.ExpiresAt,
		key.LastUsedAt,
		key.RevokedAt,
		key.UpdatedAt,
		key.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*apikeydomain.APIKey, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByHash(ctx context.Context, db *gorm.DB, hash string) (*apikeydomain.APIKey, error) {
	return r.findOne(ctx, db, `key_hash = ?`, hash)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := db.WithContext(ctx).Raw(
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE `+where,
		arg,
	).Scan(&key).Error
	if err != nil {
		return nil, err
	}
	if key.ID == uuid.Nil {
		return nil, nil
	}
	return &key, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]apikeydomain.APIKey, error) {
	var keys []apikeydomain.APIKey
	err := db.WithContext(ctx).Raw(
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *repo) DeactivateByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE api_keys SET is_active = ?, revoked_at = ?, updated_at = ?
		 WHERE user_id = ? AND is_active = ?`,
		false,
		at,
		at,
		userID,
		true,
	)
	return result.RowsAffected, result.Error
}
