package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pack *ActorPack) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*ActorPack, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*ActorPack, error)
	FindByIdentity(ctx context.Context, db *gorm.DB, identityID uuid.UUID) (*ActorPack, error)
	ListByIdentityForUpdate(ctx context.Context, db *gorm.DB, identityID uuid.UUID) ([]ActorPack, error)
	Update(ctx context.Context, db *gorm.DB, pack *ActorPack) error
	IncrementDownloads(ctx context.Context, db *gorm.DB, id uuid.UUID, delta int64) error
}
