package repository

import (
	"context"
	"time"

	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const listingColumns = `id, identity_id, title, slug, description, is_active, license_count, created_at, updated_at`

type repo struct{}

func Provide() listingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, listing *listingdomain.Listing) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.IdentityID,
		listing.Title,
		listing.Slug,
		listing.Description,
		listing.IsActive,
		listing.LicenseCount,
		listing.CreatedAt,
		listing.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*listingdomain.Listing, error) {
	return r.findOne(ctx, db, `id = ?`, "", id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*listingdomain.Listing, error) {
	return r.findOne(ctx, db, `id = ?`, pkgdb.ForUpdate(db), id)
}

func (r *repo) ListIDsByIdentities(ctx context.Context, db *gorm.DB, identityIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(identityIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM listings WHERE identity_id IN ? ORDER BY id`,
		identityIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) FindActiveByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID) (*listingdomain.Listing, error) {
	return r.findOne(ctx, db, `identity_id = ? AND is_active = ?`, "", identityID, true)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where, lock string, args ...any) (*listingdomain.Listing, error) {
	var listing listingdomain.Listing
	err := db.WithContext(ctx).Raw(
		`SELECT `+listingColumns+` FROM listings WHERE `+where+` LIMIT 1`+lock,
		args...,
	).Scan(&listing).Error
	if err != nil {
		return nil, err
	}
	if listing.ID == uuid.Nil {
		return nil, nil
	}
	return &listing, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, listing *listingdomain.Listing) error {
	return db.WithContext(ctx).Exec(
		`UPDATE listings
		 SET title = ?, description = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		listing.Title,
		listing.Description,
		listing.IsActive,
		listing.UpdatedAt,
		listing.ID,
	).Error
}

func (r *repo) DeactivateByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE listings SET is_active = ?, updated_at = ? WHERE identity_id = ? AND is_active = ?`,
		false,
		at,
		identityID,
		true,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) IncrementLicenseCount(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE listings SET license_count = license_count + ? WHERE id = ?`,
		delta,
		id,
	).Error
}
