package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Subscription, error)
	FindActiveByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*Subscription, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Subscription, error)
	ListActiveByUserForUpdate(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Subscription, error)
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
}
