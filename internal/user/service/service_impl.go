package service

import (
	"context"
	"net/mail"
	"strings"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/cascade"
	"github.com/actorhub/actorhub/internal/clock"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resourceType = "users"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Repo          userdomain.Repository
	Identities    identitydomain.Repository
	Subscriptions subscriptiondomain.Repository
	Audit         auditdomain.Service
	Cascade       *cascade.Service
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	repo          userdomain.Repository
	identities    identitydomain.Repository
	subscriptions subscriptiondomain.Repository
	audit         auditdomain.Service
	cascade       *cascade.Service
	metrics       *obsmetrics.Metrics
}

func NewService(p Params) userdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("user.service"),
		clock:         p.Clock,
		repo:          p.Repo,
		identities:    p.Identities,
		subscriptions: p.Subscriptions,
		audit:         p.Audit,
		cascade:       p.Cascade,
		metrics:       p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, req userdomain.CreateUserRequest) (userdomain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return userdomain.User{}, err
	}
	role := req.Role
	if role == "" {
		role = userdomain.RoleUser
	}
	tier := req.Tier
	if tier == "" {
		tier = userdomain.TierFree
	}
	if err := rules.Validate(resourceType).
		Check(userdomain.Roles.Validate(role)).
		Check(userdomain.Tiers.Validate(tier)).
		Err(); err != nil {
		return userdomain.User{}, err
	}

	now := s.clock.Now()
	user := userdomain.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: trimmed(req.DisplayName),
		Role:        role,
		Tier:        tier,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &user); err != nil {
			return rules.FromStore(err)
		}
		return s.audit.RecordInsert(ctx, tx, actorID, resourceType, user.ID, user)
	})
	if err != nil {
		return userdomain.User{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "insert")
	return user, nil
}

func (s *Service) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req userdomain.UpdateUserRequest) (userdomain.User, error) {
	var updated userdomain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil || user.IsDeleted() {
			return userdomain.ErrNotFound
		}
		before := *user

		if req.Email != nil {
			email, err := normalizeEmail(*req.Email)
			if err != nil {
				return err
			}
			user.Email = email
		}
		if req.DisplayName != nil {
			user.DisplayName = trimmed(req.DisplayName)
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Tier != nil {
			user.Tier = *req.Tier
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if err := rules.Validate(resourceType).
			Check(userdomain.Roles.Validate(user.Role)).
			Check(userdomain.Tiers.Validate(user.Tier)).
			Err(); err != nil {
			return err
		}

		user.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, user); err != nil {
			return rules.FromStore(err)
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, resourceType, user.ID, before, *user); err != nil {
			return err
		}
		updated = *user
		return nil
	})
	if err != nil {
		return userdomain.User{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "update")
	return updated, nil
}

// SoftDelete marks the user deleted and cascades to identities, API keys and
// subscriptions in the same transaction. Deleting twice is a no-op.
func (s *Service) SoftDelete(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return userdomain.ErrNotFound
		}
		if user.IsDeleted() {
			return nil
		}
		before := *user

		now := s.clock.Now()
		user.DeletedAt = &now
		user.IsActive = false
		user.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, user); err != nil {
			return rules.FromStore(err)
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, resourceType, user.ID, before, *user); err != nil {
			return err
		}

		res, err := s.cascade.UserSoftDeleted(ctx, tx, actorID, *user)
		if err != nil {
			return err
		}
		s.log.Info("user soft-deleted",
			zap.String("user_id", user.ID.String()),
			zap.Int("identities", res.IdentitiesDeleted),
			zap.Int("subscriptions", res.SubscriptionsCanceled),
		)
		deleted = true
		return nil
	})
	if err != nil {
		return err
	}
	if deleted {
		s.metrics.RecordMutation(ctx, resourceType, "soft_delete")
	}
	return nil
}

// Purge removes the row. Owned identities and subscriptions go with it through
// the foreign keys, so their audit entries are written here first.
func (s *Service) Purge(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return userdomain.ErrNotFound
		}

		identities, err := s.identities.ListByUser(ctx, tx, user.ID, true)
		if err != nil {
			return err
		}
		identityIDs := make([]uuid.UUID, 0, len(identities))
		for _, identity := range identities {
			identityIDs = append(identityIDs, identity.ID)
		}
		if _, err := s.cascade.Purging(ctx, tx, actorID, identityIDs, &user.ID); err != nil {
			return err
		}
		for _, identity := range identities {
			if err := s.audit.RecordDelete(ctx, tx, actorID, "identities", identity.ID, identity); err != nil {
				return err
			}
		}
		subs, err := s.subscriptions.ListByUser(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := s.audit.RecordDelete(ctx, tx, actorID, "subscriptions", sub.ID, sub); err != nil {
				return err
			}
		}
		if err := s.audit.RecordDelete(ctx, tx, actorID, resourceType, user.ID, *user); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, user.ID); err != nil {
			return rules.FromStore(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(ctx, resourceType, "delete")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (userdomain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return userdomain.User{}, err
	}
	if user == nil {
		return userdomain.User{}, userdomain.ErrNotFound
	}
	return *user, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", userdomain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", userdomain.ErrInvalidEmail
	}
	return email, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
