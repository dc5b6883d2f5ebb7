// Package aggregate keeps the denormalized counters on identities, actor packs
// and listings in step with the usage log and licenses. Every write is a
// relative increment issued on the caller's transaction.
package aggregate

import (
	"context"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	"github.com/actorhub/actorhub/internal/config"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("aggregate",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Identities identitydomain.Repository
	ActorPacks actorpackdomain.Repository
	Listings   listingdomain.Repository
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	identities identitydomain.Repository
	actorPacks actorpackdomain.Repository
	listings   listingdomain.Repository
	metrics    *obsmetrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:        p.Log.Named("aggregate"),
		identities: p.Identities,
		actorPacks: p.ActorPacks,
		listings:   p.Listings,
		metrics:    p.Metrics,
	}
}

// OnUsageLogged counts matched verifications and downloads.
func (s *Service) OnUsageLogged(ctx context.Context, tx *gorm.DB, log usagedomain.UsageLog) error {
	if log.CountsAsVerification() {
		if err := s.identities.IncrementVerifications(ctx, tx, *log.IdentityID, 1); err != nil {
			return rules.FromStore(err)
		}
		s.metrics.RecordAggregateUpdate(ctx, config.CounterTotalVerifications)
	}
	if log.CountsAsDownload() {
		if err := s.actorPacks.IncrementDownloads(ctx, tx, *log.ActorPackID, 1); err != nil {
			return rules.FromStore(err)
		}
		s.metrics.RecordAggregateUpdate(ctx, config.CounterTotalDownloads)
	}
	return nil
}

// OnLicenseCreated counts the license against its identity and listing. A
// license written as already paid credits the creator right away.
func (s *Service) OnLicenseCreated(ctx context.Context, tx *gorm.DB, license licensedomain.License) error {
	if license.IdentityID != nil {
		if err := s.identities.IncrementLicenses(ctx, tx, *license.IdentityID, 1); err != nil {
			return rules.FromStore(err)
		}
		s.metrics.RecordAggregateUpdate(ctx, config.CounterTotalLicenses)
	}
	if license.ListingID != nil {
		if err := s.listings.IncrementLicenseCount(ctx, tx, *license.ListingID, 1); err != nil {
			return rules.FromStore(err)
		}
		s.metrics.RecordAggregateUpdate(ctx, config.CounterListingLicenses)
	}
	if license.PaymentStatus == rules.PaymentCompleted {
		return s.creditRevenue(ctx, tx, license)
	}
	return nil
}

// OnLicensePaymentChanged credits creator revenue once per move into COMPLETED.
func (s *Service) OnLicensePaymentChanged(ctx context.Context, tx *gorm.DB, before, after licensedomain.License) error {
	if before.PaymentStatus == rules.PaymentCompleted || after.PaymentStatus != rules.PaymentCompleted {
		return nil
	}
	return s.creditRevenue(ctx, tx, after)
}

func (s *Service) creditRevenue(ctx context.Context, tx *gorm.DB, license licensedomain.License) error {
	amount := license.CreatorRevenue()
	if license.IdentityID == nil || amount == 0 {
		return nil
	}
	if err := s.identities.AddRevenue(ctx, tx, *license.IdentityID, amount); err != nil {
		return rules.FromStore(err)
	}
	s.metrics.RecordAggregateUpdate(ctx, config.CounterTotalRevenue)
	s.log.Debug("creator revenue credited",
		zap.String("identity_id", license.IdentityID.String()),
		zap.String("license_id", license.ID.String()),
		zap.Float64("amount", amount),
	)
	return nil
}
