package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payout *Payout) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Payout, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Payout, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Payout, error)
	Update(ctx context.Context, db *gorm.DB, payout *Payout) error
}
