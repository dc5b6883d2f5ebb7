package repository

import (
	"context"
	"time"

	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() notificationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *notificationdomain.Notification) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, user_id, type, title, body, payload, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Body,
		n.Payload,
		n.ReadAt,
		n.CreatedAt,
	).Error
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, userID, id uuid.UUID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?`,
		at,
		id,
		userID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListUnread(ctx context.Context, db *gorm.DB, userID uuid.UUID, limit int) ([]notificationdomain.Notification, error) {
	var items []notificationdomain.Notification
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, type, title, body, payload, read_at, created_at
		 FROM notifications
		 WHERE user_id = ? AND read_at IS NULL
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
