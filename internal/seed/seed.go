// Package seed bootstraps the first operator account so a fresh install can
// reach the admin routes.
package seed

import (
	"context"
	"errors"
	"strings"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/actorhub/actorhub/internal/config"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	bootstrapAdminDisplay = "Bootstrap Admin"
	bootstrapKeyName      = "bootstrap"
)

var Module = fx.Module("seed",
	fx.Invoke(RegisterBootstrap),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Users     userdomain.Service
	APIKeys   apikeydomain.Service
}

// RegisterBootstrap runs EnsureAdmin on start when BOOTSTRAP_ADMIN_EMAIL is set.
func RegisterBootstrap(p Params) {
	email := strings.TrimSpace(p.Cfg.BootstrapAdminEmail)
	if email == "" {
		return
	}
	log := p.Log.Named("seed")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			res, err := EnsureAdmin(ctx, p.DB, p.Users, p.APIKeys, email)
			if err != nil {
				return err
			}
			if res.APIKey == "" {
				log.Info("bootstrap admin already present", zap.String("user_id", res.UserID.String()))
				return nil
			}
			// The plaintext is never stored; this is the only place it appears.
			log.Warn("bootstrap admin created",
				zap.String("user_id", res.UserID.String()),
				zap.String("api_key", res.APIKey),
			)
			return nil
		},
	})
}

type Result struct {
	UserID uuid.UUID
	// APIKey is set only when the admin was created by this call.
	APIKey string
}

// EnsureAdmin creates an ADMIN user with one API key unless a live user with
// email already exists. An existing user keeps its role.
func EnsureAdmin(ctx context.Context, db *gorm.DB, users userdomain.Service, apiKeys apikeydomain.Service, email string) (Result, error) {
	if db == nil {
		return Result{}, errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Result{}, userdomain.ErrInvalidEmail
	}

	var existing userdomain.User
	err := db.WithContext(ctx).
		Where("lower(email) = ? AND deleted_at IS NULL", email).
		First(&existing).Error
	switch {
	case err == nil:
		return Result{UserID: existing.ID}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Result{}, err
	}

	display := bootstrapAdminDisplay
	admin, err := users.Create(ctx, nil, userdomain.CreateUserRequest{
		Email:       email,
		DisplayName: &display,
		Role:        userdomain.RoleAdmin,
		Tier:        userdomain.TierEnterprise,
	})
	if err != nil {
		return Result{}, err
	}

	secret, err := apiKeys.Create(ctx, apikeydomain.CreateRequest{
		UserID: admin.ID,
		Name:   bootstrapKeyName,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{UserID: admin.ID, APIKey: secret.APIKey}, nil
}
