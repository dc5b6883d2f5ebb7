package repository

import (
	"context"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const packColumns = `id, identity_id, name, training_status, training_progress, training_error,
	quality_score, is_available, total_downloads, created_at, updated_at`

type repo struct{}

func Provide() actorpackdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pack *actorpackdomain.ActorPack) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO actor_packs (`+packColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pack.ID,
		pack.IdentityID,
		pack.Name,
		pack.TrainingStatus,
		pack.TrainingProgress,
		pack.TrainingError,
		pack.QualityScore,
		pack.IsAvailable,
		pack.TotalDownloads,
		pack.CreatedAt,
		pack.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*actorpackdomain.ActorPack, error) {
	return r.findOne(ctx, db, `id = ?`, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*actorpackdomain.ActorPack, error) {
	return r.findOne(ctx, db, `id = ?`, id, pkgdb.ForUpdate(db))
}

func (r *repo) FindByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID) (*actorpackdomain.ActorPack, error) {
	return r.findOne(ctx, db, `identity_id = ?`, identityID, "")
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any, lock string) (*actorpackdomain.ActorPack, error) {
	var pack actorpackdomain.ActorPack
	err := db.WithContext(ctx).Raw(
		`SELECT `+packColumns+` FROM actor_packs WHERE `+where+` LIMIT 1`+lock,
		arg,
	).Scan(&pack).Error
	if err != nil {
		return nil, err
	}
	if pack.ID == uuid.Nil {
		return nil, nil
	}
	return &pack, nil
}

func (r *repo) ListByIdentityForUpdate(ctx context.Context, db *gorm.DB, identityID uuid.UUID) ([]actorpackdomain.ActorPack, error) {
	var packs []actorpackdomain.ActorPack
	err := db.WithContext(ctx).Raw(
		`SELECT `+packColumns+` FROM actor_packs WHERE identity_id = ? ORDER BY id`+pkgdb.ForUpdate(db),
		identityID,
	).Scan(&packs).Error
	if err != nil {
		return nil, err
	}
	return packs, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, pack *actorpackdomain.ActorPack) error {
	return db.WithContext(ctx).Exec(
		`UPDATE actor_packs
		 SET name = ?, training_status = ?, training_progress = ?, training_error = ?,
		     quality_score = ?, is_available = ?, updated_at = ?
		 WHERE id = ?`,
		pack.Name,
		pack.TrainingStatus,
		pack.TrainingProgress,
		pack.TrainingError,
		pack.QualityScore,
		pack.IsAvailable,
		pack.UpdatedAt,
		pack.ID,
	).Error
}

func (r *repo) IncrementDownloads(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE actor_packs SET total_downloads = total_downloads + ? WHERE id = ?`,
		delta,
		id,
	).Error
}
