package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/actorhub/actorhub/internal/clock"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	apiKeyPrefix      = "ah_live_"
	apiKeySecretBytes = 32
	// visible part of the key kept for display, prefix included
	apiKeyDisplayLen = len(apiKeyPrefix) + 8
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    apikeydomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    apikeydomain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) apikeydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("apikey.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]apikeydomain.Response, error) {
	if userID == uuid.Nil {
		return nil, apikeydomain.ErrInvalidUser
	}

	items, err := s.repo.List(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]apikeydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req apikeydomain.CreateRequest) (*apikeydomain.SecretResponse, error) {
	if req.UserID == uuid.Nil {
		return nil, apikeydomain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apikeydomain.ErrInvalidName
	}

	plain, hash, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	key := &apikeydomain.APIKey{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Name:      name,
		KeyPrefix: plain[:apiKeyDisplayLen],
		KeyHash:   hash,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, key); err != nil {
		return nil, rules.FromStore(err)
	}
	s.metrics.RecordMutation(ctx, "api_keys", "create")

	return &apikeydomain.SecretResponse{ID: key.ID, APIKey: plain}, nil
}

func (s *Service) Revoke(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil {
		return apikeydomain.ErrInvalidUser
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if key == nil || key.UserID != userID {
			return apikeydomain.ErrNotFound
		}
		if !key.IsActive {
			return nil
		}

		now := s.clock.Now()
		key.IsActive = false
		key.RevokedAt = &now
		key.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, key); err != nil {
			return err
		}
		s.metrics.RecordMutation(ctx, "api_keys", "revoke")
		return nil
	})
}

func (s *Service) Authenticate(ctx context.Context, raw string) (*apikeydomain.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, apiKeyPrefix) {
		return nil, apikeydomain.ErrInvalidKey
	}

	key, err := s.repo.FindByHash(ctx, s.db, apikeydomain.HashAPIKey(raw))
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if key == nil || !key.IsActive || isExpired(key.ExpiresAt, now) {
		return nil, apikeydomain.ErrInvalidKey
	}

	key.LastUsedAt = &now
	key.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		s.log.Warn("failed to record api key use", zap.String("api_key_id", key.ID.String()), zap.Error(err))
	}
	return key, nil
}

func toResponse(key *apikeydomain.APIKey) apikeydomain.Response {
	return apikeydomain.Response{
		ID:         key.ID,
		Name:       key.Name,
		KeyPrefix:  key.KeyPrefix,
		IsActive:   key.IsActive,
		CreatedAt:  key.CreatedAt,
		LastUsedAt: key.LastUsedAt,
		ExpiresAt:  key.ExpiresAt,
		RevokedAt:  key.RevokedAt,
	}
}

func generateAPIKey() (string, string, error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	plain := apiKeyPrefix + hex.EncodeToString(secret)
	return plain, apikeydomain.HashAPIKey(plain), nil
}

func isExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return now.After(*expiresAt)
}
