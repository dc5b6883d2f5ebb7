package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert reports false when a row with the same idempotency key already exists.
	Insert(ctx context.Context, db *gorm.DB, log *UsageLog) (bool, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*UsageLog, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*UsageLog, error)
}
