package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, license *License) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*License, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*License, error)
	ListActiveByIdentityForUpdate(ctx context.Context, db *gorm.DB, identityID uuid.UUID) ([]License, error)
	ListByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID) ([]License, error)
	// ListReferencingForUpdate returns licenses pointing at any of refs.
	ListReferencingForUpdate(ctx context.Context, db *gorm.DB, refs References) ([]License, error)
	Update(ctx context.Context, db *gorm.DB, license *License) error
}

// References names rows a license may point at. Empty fields match nothing.
type References struct {
	IdentityIDs []uuid.UUID
	ListingIDs  []uuid.UUID
	LicenseeID  *uuid.UUID
}
