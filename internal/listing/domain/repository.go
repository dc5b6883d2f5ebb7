package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, listing *Listing) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Listing, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Listing, error)
	ListIDsByIdentities(ctx context.Context, db *gorm.DB, identityIDs []uuid.UUID) ([]uuid.UUID, error)
	FindActiveByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID) (*Listing, error)
	Update(ctx context.Context, db *gorm.DB, listing *Listing) error
	// DeactivateByIdentity returns the number of listings switched off.
	DeactivateByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID, at time.Time) (int64, error)
	IncrementLicenseCount(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error
}
