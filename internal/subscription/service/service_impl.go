package service

import (
	"context"
	"strings"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/clock"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resourceType = "subscriptions"

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	clock   clock.Clock
	repo    subscriptiondomain.Repository
	users   userdomain.Repository
	audit   auditdomain.Service
	metrics *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
	Users userdomain.Repository
	Audit auditdomain.Service

	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		clock:   p.Clock,
		repo:    p.Repo,
		users:   p.Users,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

// Create starts an ACTIVE subscription. A second ACTIVE subscription for the
// same user is refused by the store.
func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidPlan
	}

	now := s.clock.Now()
	subscription := subscriptiondomain.Subscription{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		Plan:               plan,
		Status:             subscriptiondomain.SubscriptionStatusActive,
		Amount:             req.Amount,
		VerificationsLimit: req.VerificationsLimit,
		LicensesLimit:      req.LicensesLimit,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   req.CurrentPeriodEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := subscription.Validate(); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil || user.IsDeleted() {
			return subscriptiondomain.ErrUserNotFound
		}
		if err := s.repo.Insert(ctx, tx, &subscription); err != nil {
			return rules.FromStore(err)
		}
		return s.audit.RecordInsert(ctx, tx, actorID, resourceType, subscription.ID, subscription)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "insert")
	return subscription, nil
}

func (s *Service) TransitionStatus(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, targetStatus subscriptiondomain.SubscriptionStatus) (subscriptiondomain.Subscription, error) {
	return s.mutate(ctx, actorID, id, func(subscription *subscriptiondomain.Subscription) error {
		if err := subscriptiondomain.StatusMachine.Check(subscription.Status, targetStatus); err != nil {
			return err
		}
		if subscription.Status == targetStatus {
			return nil
		}

		switch targetStatus {
		case subscriptiondomain.SubscriptionStatusCanceled:
			now := s.clock.Now()
			subscription.CanceledAt = &now
		case subscriptiondomain.SubscriptionStatusExpired:
			if subscription.CurrentPeriodEnd == nil {
				now := s.clock.Now()
				subscription.CurrentPeriodEnd = &now
			}
		}
		subscription.Status = targetStatus
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (subscriptiondomain.Subscription, error) {
	return s.TransitionStatus(ctx, actorID, id, subscriptiondomain.SubscriptionStatusCanceled)
}

func (s *Service) UpdateLimits(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req subscriptiondomain.UpdateLimitsRequest) (subscriptiondomain.Subscription, error) {
	return s.mutate(ctx, actorID, id, func(subscription *subscriptiondomain.Subscription) error {
		if req.VerificationsLimit != nil {
			subscription.VerificationsLimit = req.VerificationsLimit
		}
		if req.LicensesLimit != nil {
			subscription.LicensesLimit = req.LicensesLimit
		}
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, apply func(*subscriptiondomain.Subscription) error) (subscriptiondomain.Subscription, error) {
	var updated subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrNotFound
		}
		before := *subscription

		if err := apply(subscription); err != nil {
			return err
		}
		if err := subscription.Validate(); err != nil {
			return err
		}
		subscription.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, subscription); err != nil {
			return rules.FromStore(err)
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, resourceType, subscription.ID, before, *subscription); err != nil {
			return err
		}
		updated = *subscription
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "update")
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrNotFound
	}
	return *subscription, nil
}

func (s *Service) GetActiveByUser(ctx context.Context, userID uuid.UUID) (subscriptiondomain.Subscription, error) {
	if userID == uuid.Nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrUserNotFound
	}
	subscription, err := s.repo.FindActiveByUser(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrNotFound
	}
	return *subscription, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]subscriptiondomain.Subscription, error) {
	if userID == uuid.Nil {
		return nil, subscriptiondomain.ErrUserNotFound
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}
