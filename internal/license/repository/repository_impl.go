package repository

import (
	"context"
	"strings"

	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const licenseColumns = `id, identity_id, listing_id, licensee_id, usage_type, license_type,
	price_usd, creator_payout_usd, platform_fee_percent, max_outputs, current_uses,
	max_impressions, current_impressions, payment_status, is_active, valid_from, valid_until,
	created_at, updated_at`

type repo struct{}

func Provide() licensedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, license *licensedomain.License) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO licenses (`+licenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		license.ID,
		license.IdentityID,
		license.ListingID,
		license.LicenseeID,
		license.UsageType,
		license.LicenseType,
		license.PriceUSD,
		license.CreatorPayoutUSD,
		license.PlatformFeePercent,
		license.MaxOutputs,
		license.CurrentUses,
		license.MaxImpressions,
		license.CurrentImpressions,
		license.PaymentStatus,
		license.IsActive,
		license.ValidFrom,
		license.ValidUntil,
		license.CreatedAt,
		license.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*licensedomain.License, error) {
	return r.find(ctx, db, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*licensedomain.License, error) {
	return r.find(ctx, db, id, pkgdb.ForUpdate(db))
}

func (r *repo) find(ctx context.Context, db *gorm.DB, id uuid.UUID, lock string) (*licensedomain.License, error) {
	var license licensedomain.License
	err := db.WithContext(ctx).Raw(
		`SELECT `+licenseColumns+` FROM licenses WHERE id = ?`+lock,
		id,
	).Scan(&license).Error
	if err != nil {
		return nil, err
	}
	if license.ID == uuid.Nil {
		return nil, nil
	}
	return &license, nil
}

func (r *repo) ListActiveByIdentityForUpdate(ctx context.Context, db *gorm.DB, identityID uuid.UUID) ([]licensedomain.License, error) {
	var licenses []licensedomain.License
	err := db.WithContext(ctx).Raw(
		`SELECT `+licenseColumns+` FROM licenses
		 WHERE identity_id = ? AND is_active = ?
		 ORDER BY id`+pkgdb.ForUpdate(db),
		identityID,
		true,
	).Scan(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

func (r *repo) ListByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID) ([]licensedomain.License, error) {
	var licenses []licensedomain.License
	err := db.WithContext(ctx).Raw(
		`SELECT `+licenseColumns+` FROM licenses WHERE identity_id = ? ORDER BY created_at DESC, id DESC`,
		identityID,
	).Scan(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

func (r *repo) ListReferencingForUpdate(ctx context.Context, db *gorm.DB, refs licensedomain.References) ([]licensedomain.License, error) {
	var (
		where []string
		args  []any
	)
	if len(refs.IdentityIDs) > 0 {
		where = append(where, "identity_id IN ?")
		args = append(args, refs.IdentityIDs)
	}
	if len(refs.ListingIDs) > 0 {
		where = append(where, "listing_id IN ?")
		args = append(args, refs.ListingIDs)
	}
	if refs.LicenseeID != nil {
		where = append(where, "licensee_id = ?")
		args = append(args, *refs.LicenseeID)
	}
	if len(where) == 0 {
		return nil, nil
	}

	var licenses []licensedomain.License
	err := db.WithContext(ctx).Raw(
		`SELECT `+licenseColumns+` FROM licenses
		 WHERE `+strings.Join(where, " OR ")+`
		 ORDER BY id`+pkgdb.ForUpdate(db),
		args...,
	).Scan(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, license *licensedomain.License) error {
	return db.WithContext(ctx).Exec(
		`UPDATE licenses
		 SET price_usd = ?, creator_payout_usd = ?, platform_fee_percent = ?, max_outputs = ?,
		     current_uses = ?, max_impressions = ?, current_impressions = ?, payment_status = ?,
		     is_active = ?, valid_until = ?, updated_at = ?
		 WHERE id = ?`,
		license.PriceUSD,
		license.CreatorPayoutUSD,
		license.PlatformFeePercent,
		license.MaxOutputs,
		license.CurrentUses,
		license.MaxImpressions,
		license.CurrentImpressions,
		license.PaymentStatus,
		license.IsActive,
		license.ValidUntil,
		license.UpdatedAt,
		license.ID,
	).Error
}
