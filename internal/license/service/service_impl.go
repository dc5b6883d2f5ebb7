package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/actorhub/actorhub/internal/aggregate"
	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/clock"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resourceType = "licenses"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Repo          licensedomain.Repository
	Identities    identitydomain.Repository
	Listings      listingdomain.Repository
	Aggregates    *aggregate.Service
	Notifications notificationdomain.Service
	Audit         auditdomain.Service
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	repo          licensedomain.Repository
	identities    identitydomain.Repository
	listings      listingdomain.Repository
	aggregates    *aggregate.Service
	notifications notificationdomain.Service
	audit         auditdomain.Service
	metrics       *obsmetrics.Metrics
}

func NewService(p Params) licensedomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("license.service"),
		clock:         p.Clock,
		repo:          p.Repo,
		identities:    p.Identities,
		listings:      p.Listings,
		aggregates:    p.Aggregates,
		notifications: p.Notifications,
		audit:         p.Audit,
		metrics:       p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, req licensedomain.CreateLicenseRequest) (licensedomain.License, error) {
	now := s.clock.Now()
	identityID := req.IdentityID
	license := licensedomain.License{
		ID:                 uuid.New(),
		IdentityID:         &identityID,
		LicenseeID:         req.LicenseeID,
		UsageType:          req.UsageType,
		LicenseType:        req.LicenseType,
		PriceUSD:           req.PriceUSD,
		CreatorPayoutUSD:   req.CreatorPayoutUSD,
		PlatformFeePercent: licensedomain.DefaultPlatformFeePercent,
		MaxOutputs:         req.MaxOutputs,
		MaxImpressions:     req.MaxImpressions,
		PaymentStatus:      rules.PaymentPending,
		IsActive:           true,
		ValidFrom:          now,
		ValidUntil:         req.ValidUntil,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.PlatformFeePercent != nil {
		license.PlatformFeePercent = *req.PlatformFeePercent
	}
	if req.PaymentStatus != nil {
		license.PaymentStatus = *req.PaymentStatus
	}
	if req.ValidFrom != nil {
		license.ValidFrom = req.ValidFrom.UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.applyLicenseInsert(ctx, tx, actorID, &license)
	})
	if err != nil {
		s.logRejection(err, license.ID)
		return licensedomain.License{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "insert")
	return license, nil
}

// applyLicenseInsert runs the insert-side rules: bounds, the commercial-use
// guard, the aggregate increments and the audit entry.
func (s *Service) applyLicenseInsert(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, license *licensedomain.License) error {
	if err := license.Validate(); err != nil {
		return err
	}

	identity, err := s.identities.FindByIDForUpdate(ctx, tx, *license.IdentityID)
	if err != nil {
		return err
	}
	if license.UsageType == licensedomain.UsageCommercial && (identity == nil || !identity.AllowCommercialUse) {
		return rules.CommercialUseNotAllowed()
	}
	if identity == nil || identity.IsDeleted() {
		return licensedomain.ErrIdentityNotFound
	}

	listing, err := s.listings.FindActiveByIdentity(ctx, tx, identity.ID)
	if err != nil {
		return err
	}
	if listing != nil {
		license.ListingID = &listing.ID
	}

	if err := license.CheckUsage(); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, tx, license); err != nil {
		return rules.FromStore(err)
	}
	if err := s.aggregates.OnLicenseCreated(ctx, tx, *license); err != nil {
		return err
	}
	if license.PaymentStatus == rules.PaymentCompleted {
		if err := s.notifyPurchase(ctx, tx, identity.UserID, *license); err != nil {
			return err
		}
	}
	return s.audit.RecordInsert(ctx, tx, actorID, resourceType, license.ID, *license)
}

func (s *Service) Update(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req licensedomain.UpdateLicenseRequest) (licensedomain.License, error) {
	return s.mutate(ctx, actorID, id, func(license *licensedomain.License) error {
		if req.PaymentStatus != nil {
			if err := rules.PaymentMachine.Check(license.PaymentStatus, *req.PaymentStatus); err != nil {
				return err
			}
			license.PaymentStatus = *req.PaymentStatus
		}
		if req.PriceUSD != nil {
			license.PriceUSD = *req.PriceUSD
		}
		if req.CreatorPayoutUSD != nil {
			license.CreatorPayoutUSD = req.CreatorPayoutUSD
		}
		if req.PlatformFeePercent != nil {
			license.PlatformFeePercent = *req.PlatformFeePercent
		}
		if req.MaxOutputs != nil {
			license.MaxOutputs = req.MaxOutputs
		}
		if req.CurrentUses != nil {
			license.CurrentUses = *req.CurrentUses
		}
		if req.MaxImpressions != nil {
			license.MaxImpressions = req.MaxImpressions
		}
		if req.CurrentImpressions != nil {
			license.CurrentImpressions = *req.CurrentImpressions
		}
		if req.ValidUntil != nil {
			until := req.ValidUntil.UTC()
			license.ValidUntil = &until
		}
		if req.IsActive != nil {
			license.IsActive = *req.IsActive
		}
		return nil
	})
}

// Deactivate switches the license off. Licenses are never deleted.
func (s *Service) Deactivate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (licensedomain.License, error) {
	return s.mutate(ctx, actorID, id, func(license *licensedomain.License) error {
		license.IsActive = false
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, apply func(*licensedomain.License) error) (licensedomain.License, error) {
	var updated licensedomain.License
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		license, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if license == nil {
			return licensedomain.ErrNotFound
		}
		before := *license
		if err := apply(license); err != nil {
			return err
		}
		if err := s.applyLicenseUpdate(ctx, tx, actorID, before, license); err != nil {
			return err
		}
		updated = *license
		return nil
	})
	if err != nil {
		s.logRejection(err, id)
		return licensedomain.License{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "update")
	return updated, nil
}

// applyLicenseUpdate runs the update-side rules: bounds, usage limits, revenue
// crediting on completion and the audit entry.
func (s *Service) applyLicenseUpdate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, before licensedomain.License, license *licensedomain.License) error {
	if err := license.Validate(); err != nil {
		return err
	}
	if err := license.CheckUsage(); err != nil {
		return err
	}

	license.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, tx, license); err != nil {
		return rules.FromStore(err)
	}
	if err := s.aggregates.OnLicensePaymentChanged(ctx, tx, before, *license); err != nil {
		return err
	}
	if before.PaymentStatus != rules.PaymentCompleted && license.PaymentStatus == rules.PaymentCompleted && license.IdentityID != nil {
		identity, err := s.identities.FindByID(ctx, tx, *license.IdentityID)
		if err != nil {
			return err
		}
		if identity != nil {
			if err := s.notifyPurchase(ctx, tx, identity.UserID, *license); err != nil {
				return err
			}
		}
	}
	return s.audit.RecordUpdate(ctx, tx, actorID, resourceType, license.ID, before, *license)
}

func (s *Service) notifyPurchase(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, license licensedomain.License) error {
	_, err := s.notifications.CreateTx(ctx, tx, notificationdomain.CreateRequest{
		UserID: ownerID,
		Type:   notificationdomain.TypeLicensePurchased,
		Title:  fmt.Sprintf("New %s license purchased", strings.ToLower(string(license.UsageType))),
		Payload: map[string]any{
			"license_id":     license.ID.String(),
			"creator_payout": license.CreatorRevenue(),
		},
	})
	return err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (licensedomain.License, error) {
	license, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return licensedomain.License{}, err
	}
	if license == nil {
		return licensedomain.License{}, licensedomain.ErrNotFound
	}
	return *license, nil
}

func (s *Service) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]licensedomain.License, error) {
	if identityID == uuid.Nil {
		return nil, licensedomain.ErrIdentityNotFound
	}
	return s.repo.ListByIdentity(ctx, s.db, identityID)
}

func (s *Service) logRejection(err error, id uuid.UUID) {
	kind, ok := rules.KindOf(err)
	if !ok {
		return
	}
	s.log.Info("license write rejected",
		zap.String("license_id", id.String()),
		zap.String("rule_kind", string(kind)),
		zap.String("rule_code", rules.CodeOf(err)),
	)
}
