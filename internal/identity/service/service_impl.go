package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/cascade"
	"github.com/actorhub/actorhub/internal/clock"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resourceType          = "identities"
	displayNameConstraint = "uq_identities_user_display_name"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    identitydomain.Repository
	Users   userdomain.Repository
	Audit   auditdomain.Service
	Cascade *cascade.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    identitydomain.Repository
	users   userdomain.Repository
	audit   auditdomain.Service
	cascade *cascade.Service
	metrics *obsmetrics.Metrics
}

func NewService(p Params) identitydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("identity.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		users:   p.Users,
		audit:   p.Audit,
		cascade: p.Cascade,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, req identitydomain.CreateIdentityRequest) (identitydomain.Identity, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return identitydomain.Identity{}, identitydomain.ErrInvalidDisplayName
	}

	now := s.clock.Now()
	identity := identitydomain.Identity{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		DisplayName:        name,
		Bio:                req.Bio,
		Status:             rules.IdentityPending,
		AllowCommercialUse: req.AllowCommercialUse,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := s.users.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if owner == nil || owner.IsDeleted() {
			return identitydomain.ErrOwnerNotFound
		}
		if err := s.ensureDisplayNameFree(ctx, tx, identity); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &identity); err != nil {
			return rules.FromStore(err)
		}
		return s.audit.RecordInsert(ctx, tx, actorID, resourceType, identity.ID, identity)
	})
	if err != nil {
		return identitydomain.Identity{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "insert")
	return identity, nil
}

func (s *Service) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req identitydomain.UpdateIdentityRequest) (identitydomain.Identity, error) {
	return s.mutate(ctx, actorID, id, func(identity *identitydomain.Identity) error {
		if req.DisplayName != nil {
			name := strings.TrimSpace(*req.DisplayName)
			if name == "" {
				return identitydomain.ErrInvalidDisplayName
			}
			identity.DisplayName = name
		}
		if req.Bio != nil {
			identity.Bio = req.Bio
		}
		if req.AllowCommercialUse != nil {
			identity.AllowCommercialUse = *req.AllowCommercialUse
		}
		if req.Status != nil {
			if err := rules.IdentityMachine.Check(identity.Status, *req.Status); err != nil {
				return err
			}
			identity.Status = *req.Status
		}
		return nil
	})
}

func (s *Service) TransitionStatus(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, to rules.IdentityStatus) (identitydomain.Identity, error) {
	return s.Update(ctx, actorID, id, identitydomain.UpdateIdentityRequest{Status: &to})
}

func (s *Service) mutate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, apply func(*identitydomain.Identity) error) (identitydomain.Identity, error) {
	var updated identitydomain.Identity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if identity == nil || identity.IsDeleted() {
			return identitydomain.ErrNotFound
		}
		before := *identity

		if err := apply(identity); err != nil {
			return err
		}
		if identity.DisplayName != before.DisplayName {
			if err := s.ensureDisplayNameFree(ctx, tx, *identity); err != nil {
				return err
			}
		}
		identity.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, identity); err != nil {
			return rules.FromStore(err)
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, resourceType, identity.ID, before, *identity); err != nil {
			return err
		}
		updated = *identity
		return nil
	})
	if err != nil {
		return identitydomain.Identity{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "update")
	return updated, nil
}

// SoftDelete stamps deleted_at and runs the identity cascade in the same
// transaction. Deleting an already deleted identity is a no-op.
func (s *Service) SoftDelete(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if identity == nil {
			return identitydomain.ErrNotFound
		}
		if identity.IsDeleted() {
			return nil
		}
		before := *identity

		now := s.clock.Now()
		identity.DeletedAt = &now
		identity.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, identity); err != nil {
			return rules.FromStore(err)
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, resourceType, identity.ID, before, *identity); err != nil {
			return err
		}
		if _, err := s.cascade.IdentitySoftDeleted(ctx, tx, actorID, *identity); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return err
	}
	if deleted {
		s.log.Info("identity soft-deleted", zap.String("identity_id", id.String()))
		s.metrics.RecordMutation(ctx, resourceType, "soft_delete")
	}
	return nil
}

// Purge removes the row; listings and actor packs go with it, licenses and
// usage logs keep their history with the reference cleared.
func (s *Service) Purge(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if identity == nil {
			return identitydomain.ErrNotFound
		}
		if _, err := s.cascade.Purging(ctx, tx, actorID, []uuid.UUID{identity.ID}, nil); err != nil {
			return err
		}
		if err := s.audit.RecordDelete(ctx, tx, actorID, resourceType, identity.ID, *identity); err != nil {
			return err
		}
		return rules.FromStore(s.repo.Delete(ctx, tx, identity.ID))
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(ctx, resourceType, "delete")
	return nil
}

// ensureDisplayNameFree folds case in Go so non-ASCII names collide the same
// way on every dialect; sqlite's lower() only folds ASCII.
func (s *Service) ensureDisplayNameFree(ctx context.Context, tx *gorm.DB, identity identitydomain.Identity) error {
	live, err := s.repo.ListByUser(ctx, tx, identity.UserID, false)
	if err != nil {
		return err
	}
	for _, other := range live {
		if other.ID != identity.ID && strings.EqualFold(other.DisplayName, identity.DisplayName) {
			return rules.Constraint(displayNameConstraint,
				fmt.Sprintf("display name %q is already used by another identity of this user", identity.DisplayName))
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (identitydomain.Identity, error) {
	identity, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return identitydomain.Identity{}, err
	}
	if identity == nil {
		return identitydomain.Identity{}, identitydomain.ErrNotFound
	}
	return *identity, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]identitydomain.Identity, error) {
	if userID == uuid.Nil {
		return nil, identitydomain.ErrOwnerNotFound
	}
	return s.repo.ListByUser(ctx, s.db, userID, false)
}
