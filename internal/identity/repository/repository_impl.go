package repository

import (
	"context"

	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const identityColumns = `id, user_id, display_name, bio, status, allow_commercial_use,
	total_verifications, total_licenses, total_revenue, created_at, updated_at, deleted_at`

type repo struct{}

func Provide() identitydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, identity *identitydomain.Identity) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO identities (`+identityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID,
		identity.UserID,
		identity.DisplayName,
		identity.Bio,
		identity.Status,
		identity.AllowCommercialUse,
		identity.TotalVerifications,
		identity.TotalLicenses,
		identity.TotalRevenue,
		identity.CreatedAt,
		identity.UpdatedAt,
		identity.DeletedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*identitydomain.Identity, error) {
	return r.find(ctx, db, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*identitydomain.Identity, error) {
	return r.find(ctx, db, id, pkgdb.ForUpdate(db))
}

func (r *repo) find(ctx context.Context, db *gorm.DB, id uuid.UUID, lock string) (*identitydomain.Identity, error) {
	var identity identitydomain.Identity
	err := db.WithContext(ctx).Raw(
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`+lock,
		id,
	).Scan(&identity).Error
	if err != nil {
		return nil, err
	}
	if identity.ID == uuid.Nil {
		return nil, nil
	}
	return &identity, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, includeDeleted bool) ([]identitydomain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE user_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var identities []identitydomain.Identity
	if err := db.WithContext(ctx).Raw(query, userID).Scan(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *repo) ListLiveByUserForUpdate(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]identitydomain.Identity, error) {
	var identities []identitydomain.Identity
	err := db.WithContext(ctx).Raw(
		`SELECT `+identityColumns+` FROM identities
		 WHERE user_id = ? AND deleted_at IS NULL
		 ORDER BY id`+pkgdb.ForUpdate(db),
		userID,
	).Scan(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, identity *identitydomain.Identity) error {
	return db.WithContext(ctx).Exec(
		`UPDATE identities
		 SET display_name = ?, bio = ?, status = ?, allow_commercial_use = ?, updated_at = ?, deleted_at = ?
		 WHERE id = ?`,
		identity.DisplayName,
		identity.Bio,
		identity.Status,
		identity.AllowCommercialUse,
		identity.UpdatedAt,
		identity.DeletedAt,
		identity.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM identities WHERE id = ?`, id).Error
}

func (r *repo) IncrementVerifications(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE identities SET total_verifications = total_verifications + ? WHERE id = ?`,
		delta,
		id,
	).Error
}

func (r *repo) IncrementLicenses(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE identities SET total_licenses = total_licenses + ? WHERE id = ?`,
		delta,
		id,
	).Error
}

func (r *repo) AddRevenue(ctx context.Context, db *gorm.DB, id uuid.UUID, amount float64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE identities SET total_revenue = total_revenue + ? WHERE id = ?`,
		amount,
		id,
	).Error
}
