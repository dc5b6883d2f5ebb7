package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	Update(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*APIKey, error)
	FindByHash(ctx context.Context, db *gorm.DB, hash string) (*APIKey, error)
	List(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]APIKey, error)
	// DeactivateByUser revokes every active key of the user and returns how many changed.
	DeactivateByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, at time.Time) (int64, error)
}
