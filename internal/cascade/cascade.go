// Package cascade propagates soft deletes to dependent rows inside the
// deleting transaction. Any failing step aborts the whole delete with a
// referential cascade failure.
package cascade

import (
	"context"
	"time"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/clock"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/actorhub/actorhub/internal/rules"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StepDeactivateListings  = "deactivate_listings"
	StepFailTraining        = "fail_training"
	StepDeactivateLicenses  = "deactivate_licenses"
	StepSuspendIdentities   = "suspend_identities"
	StepDeactivateAPIKeys   = "deactivate_api_keys"
	StepCancelSubscriptions = "cancel_subscriptions"
	StepDetachLicenses      = "detach_licenses"
	StepDetachPayouts       = "detach_payouts"
)

var Module = fx.Module("cascade",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Audit         auditdomain.Service
	Identities    identitydomain.Repository
	Listings      listingdomain.Repository
	ActorPacks    actorpackdomain.Repository
	Licenses      licensedomain.Repository
	APIKeys       apikeydomain.Repository
	Subscriptions subscriptiondomain.Repository
	Payouts       payoutdomain.Repository
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log           *zap.Logger
	clock         clock.Clock
	audit         auditdomain.Service
	identities    identitydomain.Repository
	listings      listingdomain.Repository
	actorPacks    actorpackdomain.Repository
	licenses      licensedomain.Repository
	apiKeys       apikeydomain.Repository
	subscriptions subscriptiondomain.Repository
	payouts       payoutdomain.Repository
	metrics       *obsmetrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:           p.Log.Named("cascade"),
		clock:         p.Clock,
		audit:         p.Audit,
		identities:    p.Identities,
		listings:      p.Listings,
		actorPacks:    p.ActorPacks,
		licenses:      p.Licenses,
		apiKeys:       p.APIKeys,
		subscriptions: p.Subscriptions,
		payouts:       p.Payouts,
		metrics:       p.Metrics,
	}
}

type IdentityResult struct {
	ListingsDeactivated int64
	TrainingsFailed     int
	PacksWithdrawn      int
	LicensesDeactivated int
}

func (r *IdentityResult) add(other IdentityResult) {
	r.ListingsDeactivated += other.ListingsDeactivated
	r.TrainingsFailed += other.TrainingsFailed
	r.PacksWithdrawn += other.PacksWithdrawn
	r.LicensesDeactivated += other.LicensesDeactivated
}

type UserResult struct {
	IdentitiesDeleted     int
	APIKeysDeactivated    int64
	SubscriptionsCanceled int
	Identities            IdentityResult
}

// IdentitySoftDeleted runs after identity.DeletedAt has been set on tx.
func (s *Service) IdentitySoftDeleted(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, identity identitydomain.Identity) (IdentityResult, error) {
	var res IdentityResult
	at := s.deletedAt(identity.DeletedAt)

	rows, err := s.listings.DeactivateByIdentity(ctx, tx, identity.ID, at)
	if err != nil {
		return res, rules.CascadeFailure(StepDeactivateListings, rules.FromStore(err))
	}
	res.ListingsDeactivated = rows
	s.metrics.RecordCascade(ctx, "listings", rows)

	packs, err := s.actorPacks.ListByIdentityForUpdate(ctx, tx, identity.ID)
	if err != nil {
		return res, rules.CascadeFailure(StepFailTraining, err)
	}
	for i := range packs {
		failed, withdrawn, err := s.failTraining(ctx, tx, &packs[i], at)
		if err != nil {
			return res, rules.CascadeFailure(StepFailTraining, err)
		}
		if failed {
			res.TrainingsFailed++
		}
		if withdrawn {
			res.PacksWithdrawn++
		}
	}
	s.metrics.RecordCascade(ctx, "actor_packs", int64(res.TrainingsFailed))

	licenses, err := s.licenses.ListActiveByIdentityForUpdate(ctx, tx, identity.ID)
	if err != nil {
		return res, rules.CascadeFailure(StepDeactivateLicenses, err)
	}
	for i := range licenses {
		if err := s.deactivateLicense(ctx, tx, actorID, licenses[i], at); err != nil {
			return res, rules.CascadeFailure(StepDeactivateLicenses, err)
		}
		res.LicensesDeactivated++
	}
	s.metrics.RecordCascade(ctx, "licenses", int64(res.LicensesDeactivated))

	s.log.Info("identity cascade applied",
		zap.String("identity_id", identity.ID.String()),
		zap.Int64("listings_deactivated", res.ListingsDeactivated),
		zap.Int("trainings_failed", res.TrainingsFailed),
		zap.Int("licenses_deactivated", res.LicensesDeactivated),
	)
	return res, nil
}

// UserSoftDeleted runs after user.DeletedAt has been set on tx. Each owned
// identity is soft-deleted and suspended, which fires the identity cascade.
func (s *Service) UserSoftDeleted(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, user userdomain.User) (UserResult, error) {
	var res UserResult
	at := s.deletedAt(user.DeletedAt)

	identities, err := s.identities.ListLiveByUserForUpdate(ctx, tx, user.ID)
	if err != nil {
		return res, rules.CascadeFailure(StepSuspendIdentities, err)
	}
	for _, identity := range identities {
		before := identity
		if err := rules.IdentityMachine.Force(identity.Status, rules.IdentitySuspended); err != nil {
			return res, rules.CascadeFailure(StepSuspendIdentities, err)
		}
		identity.Status = rules.IdentitySuspended
		identity.DeletedAt = &at
		identity.UpdatedAt = at
		if err := s.identities.Update(ctx, tx, &identity); err != nil {
			return res, rules.CascadeFailure(StepSuspendIdentities, rules.FromStore(err))
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, "identities", identity.ID, before, identity); err != nil {
			return res, rules.CascadeFailure(StepSuspendIdentities, err)
		}

		nested, err := s.IdentitySoftDeleted(ctx, tx, actorID, identity)
		if err != nil {
			return res, err
		}
		res.Identities.add(nested)
		res.IdentitiesDeleted++
	}
	s.metrics.RecordCascade(ctx, "identities", int64(res.IdentitiesDeleted))

	keys, err := s.apiKeys.DeactivateByUser(ctx, tx, user.ID, at)
	if err != nil {
		return res, rules.CascadeFailure(StepDeactivateAPIKeys, rules.FromStore(err))
	}
	res.APIKeysDeactivated = keys
	s.metrics.RecordCascade(ctx, "api_keys", keys)

	subs, err := s.subscriptions.ListActiveByUserForUpdate(ctx, tx, user.ID)
	if err != nil {
		return res, rules.CascadeFailure(StepCancelSubscriptions, err)
	}
	for _, sub := range subs {
		before := sub
		if err := subscriptiondomain.StatusMachine.Check(sub.Status, subscriptiondomain.SubscriptionStatusCanceled); err != nil {
			return res, rules.CascadeFailure(StepCancelSubscriptions, err)
		}
		sub.Status = subscriptiondomain.SubscriptionStatusCanceled
		sub.CanceledAt = &at
		sub.UpdatedAt = at
		if err := s.subscriptions.Update(ctx, tx, &sub); err != nil {
			return res, rules.CascadeFailure(StepCancelSubscriptions, rules.FromStore(err))
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, "subscriptions", sub.ID, before, sub); err != nil {
			return res, rules.CascadeFailure(StepCancelSubscriptions, err)
		}
		res.SubscriptionsCanceled++
	}
	s.metrics.RecordCascade(ctx, "subscriptions", int64(res.SubscriptionsCanceled))

	s.log.Info("user cascade applied",
		zap.String("user_id", user.ID.String()),
		zap.Int("identities_deleted", res.IdentitiesDeleted),
		zap.Int64("api_keys_deactivated", res.APIKeysDeactivated),
		zap.Int("subscriptions_canceled", res.SubscriptionsCanceled),
	)
	return res, nil
}

// failTraining fails an in-flight run and withdraws the pack from sale.
func (s *Service) failTraining(ctx context.Context, tx *gorm.DB, pack *actorpackdomain.ActorPack, at time.Time) (bool, bool, error) {
	failed := pack.TrainingStatus.InFlight()
	withdrawn := pack.IsAvailable
	if !failed && !withdrawn {
		return false, false, nil
	}

	if failed {
		if err := rules.TrainingMachine.Force(pack.TrainingStatus, rules.TrainingFailed); err != nil {
			return false, false, err
		}
		reason := actorpackdomain.IdentityDeletedError
		pack.TrainingStatus = rules.TrainingFailed
		pack.TrainingError = &reason
	}
	pack.IsAvailable = false
	pack.UpdatedAt = at
	if err := s.actorPacks.Update(ctx, tx, pack); err != nil {
		return false, false, rules.FromStore(err)
	}
	return failed, withdrawn, nil
}

func (s *Service) deactivateLicense(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, license licensedomain.License, at time.Time) error {
	before := license
	license.IsActive = false
	license.UpdatedAt = at
	if err := license.Validate(); err != nil {
		return err
	}
	if err := s.licenses.Update(ctx, tx, &license); err != nil {
		return rules.FromStore(err)
	}
	return s.audit.RecordUpdate(ctx, tx, actorID, "licenses", license.ID, before, license)
}

func (s *Service) deletedAt(ts *time.Time) time.Time {
	if ts == nil {
		return s.clock.Now().UTC()
	}
	return ts.UTC()
}

type PurgeResult struct {
	LicensesDetached int
	PayoutsDetached  int
}

// Purging audits the references that ON DELETE SET NULL is about to clear when
// the identities, and the user when userID is set, are hard deleted. It must
// run on tx before the delete.
func (s *Service) Purging(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, identityIDs []uuid.UUID, userID *uuid.UUID) (PurgeResult, error) {
	var res PurgeResult

	listingIDs, err := s.listings.ListIDsByIdentities(ctx, tx, identityIDs)
	if err != nil {
		return res, rules.CascadeFailure(StepDetachLicenses, err)
	}
	licenses, err := s.licenses.ListReferencingForUpdate(ctx, tx, licensedomain.References{
		IdentityIDs: identityIDs,
		ListingIDs:  listingIDs,
		LicenseeID:  userID,
	})
	if err != nil {
		return res, rules.CascadeFailure(StepDetachLicenses, err)
	}

	purgedIdentities := idSet(identityIDs)
	purgedListings := idSet(listingIDs)
	for _, license := range licenses {
		after := license
		if after.IdentityID != nil && purgedIdentities[*after.IdentityID] {
			after.IdentityID = nil
		}
		if after.ListingID != nil && purgedListings[*after.ListingID] {
			after.ListingID = nil
		}
		if after.LicenseeID != nil && userID != nil && *after.LicenseeID == *userID {
			after.LicenseeID = nil
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, "licenses", license.ID, license, after); err != nil {
			return res, rules.CascadeFailure(StepDetachLicenses, err)
		}
		res.LicensesDetached++
	}

	if userID != nil {
		payouts, err := s.payouts.ListByUser(ctx, tx, *userID)
		if err != nil {
			return res, rules.CascadeFailure(StepDetachPayouts, err)
		}
		for _, payout := range payouts {
			after := payout
			after.UserID = nil
			if err := s.audit.RecordUpdate(ctx, tx, actorID, "payouts", payout.ID, payout, after); err != nil {
				return res, rules.CascadeFailure(StepDetachPayouts, err)
			}
			res.PayoutsDetached++
		}
	}

	s.log.Info("purge references detached",
		zap.Int("licenses_detached", res.LicensesDetached),
		zap.Int("payouts_detached", res.PayoutsDetached),
	)
	return res, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
