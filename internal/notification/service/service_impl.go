package service

import (
	"context"
	"strings"

	"github.com/actorhub/actorhub/internal/clock"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const unreadLimit = 100

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  notificationdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  notificationdomain.Repository
}

func NewService(p Params) notificationdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req notificationdomain.CreateRequest) (notificationdomain.Notification, error) {
	return s.CreateTx(ctx, s.db, req)
}

func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, req notificationdomain.CreateRequest) (notificationdomain.Notification, error) {
	if req.UserID == uuid.Nil {
		return notificationdomain.Notification{}, notificationdomain.ErrInvalidUser
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return notificationdomain.Notification{}, notificationdomain.ErrInvalidTitle
	}

	n := notificationdomain.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     title,
		Body:      req.Body,
		CreatedAt: s.clock.Now(),
	}
	if len(req.Payload) > 0 {
		n.Payload = datatypes.JSONMap(req.Payload)
	}
	if err := s.repo.Insert(ctx, tx, &n); err != nil {
		return notificationdomain.Notification{}, rules.FromStore(err)
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	rows, err := s.repo.MarkRead(ctx, s.db, userID, id, s.clock.Now())
	if err != nil {
		return err
	}
	if rows == 0 {
		return notificationdomain.ErrNotFound
	}
	return nil
}

func (s *Service) ListUnread(ctx context.Context, userID uuid.UUID) ([]notificationdomain.Notification, error) {
	if userID == uuid.Nil {
		return nil, notificationdomain.ErrInvalidUser
	}
	return s.repo.ListUnread(ctx, s.db, userID, unreadLimit)
}
