package repository

import (
	"context"

	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const userColumns = `id, email, display_name, role, tier, is_active, created_at, updated_at, deleted_at`

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *userdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.Tier,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
		user.DeletedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*userdomain.User, error) {
	return r.find(ctx, db, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*userdomain.User, error) {
	return r.find(ctx, db, id, pkgdb.ForUpdate(db))
}

func (r *repo) find(ctx context.Context, db *gorm.DB, id uuid.UUID, lock string) (*userdomain.User, error) {
	var user userdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE id = ?`+lock,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, user *userdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users
		 SET email = ?, display_name = ?, role = ?, tier = ?, is_active = ?, updated_at = ?, deleted_at = ?
		 WHERE id = ?`,
		user.Email,
		user.DisplayName,
		user.Role,
		user.Tier,
		user.IsActive,
		user.UpdatedAt,
		user.DeletedAt,
		user.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM users WHERE id = ?`, id).Error
}
