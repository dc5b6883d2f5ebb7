package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, identity *Identity) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Identity, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Identity, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, includeDeleted bool) ([]Identity, error)
	// ListLiveByUserForUpdate locks the user's identities that are not soft-deleted.
	ListLiveByUserForUpdate(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Identity, error)
	Update(ctx context.Context, db *gorm.DB, identity *Identity) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error

	IncrementVerifications(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error
	IncrementLicenses(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error
	AddRevenue(ctx context.Context, db *gorm.DB, id uuid.UUID, amount float64) error
}
