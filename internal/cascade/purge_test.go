package cascade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	actorpackrepo "github.com/actorhub/actorhub/internal/actorpack/repository"
	apikeyrepo "github.com/actorhub/actorhub/internal/apikey/repository"
	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/cascade"
	identityrepo "github.com/actorhub/actorhub/internal/identity/repository"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	licenserepo "github.com/actorhub/actorhub/internal/license/repository"
	listingrepo "github.com/actorhub/actorhub/internal/listing/repository"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	payoutrepo "github.com/actorhub/actorhub/internal/payout/repository"
	"github.com/actorhub/actorhub/internal/rules"
	subscriptionrepo "github.com/actorhub/actorhub/internal/subscription/repository"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditMock struct {
	mock.Mock
}

func (m *auditMock) RecordInsert(_ context.Context, _ *gorm.DB, _ *uuid.UUID, resourceType string, resourceID uuid.UUID, after any) error {
	return m.Called(resourceType, resourceID, after).Error(0)
}

func (m *auditMock) RecordUpdate(_ context.Context, _ *gorm.DB, _ *uuid.UUID, resourceType string, resourceID uuid.UUID, before, after any) error {
	return m.Called(resourceType, resourceID, before, after).Error(0)
}

func (m *auditMock) RecordDelete(_ context.Context, _ *gorm.DB, _ *uuid.UUID, resourceType string, resourceID uuid.UUID, before any) error {
	return m.Called(resourceType, resourceID, before).Error(0)
}

func (m *auditMock) List(context.Context, auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func newCascade(env *stack.Env, audit auditdomain.Service) *cascade.Service {
	return cascade.New(cascade.Params{
		Log:           zap.NewNop(),
		Clock:         env.Clock,
		Audit:         audit,
		Identities:    identityrepo.Provide(),
		Listings:      listingrepo.Provide(),
		ActorPacks:    actorpackrepo.Provide(),
		Licenses:      licenserepo.Provide(),
		APIKeys:       apikeyrepo.Provide(),
		Subscriptions: subscriptionrepo.Provide(),
		Payouts:       payoutrepo.Provide(),
	})
}

type purgeFixture struct {
	seed    stack.Fixture
	license licensedomain.License
	payout  payoutdomain.Payout
}

func newPurgeFixture(t *testing.T, env *stack.Env) purgeFixture {
	t.Helper()
	seed := env.Seed(t, false)
	license := newLicense(t, env, seed.Identity.ID)
	payout, err := env.Payouts.Request(context.Background(), nil, payoutdomain.RequestPayoutRequest{
		UserID: seed.User.ID,
		Period: "2026-02",
		Amount: 25,
	})
	require.NoError(t, err)
	return purgeFixture{seed: seed, license: license, payout: payout}
}

func TestPurgingAuditsNulledReferences(t *testing.T) {
	env := stack.New(t)
	fixture := newPurgeFixture(t, env)

	audit := new(auditMock)
	audit.On("RecordUpdate", "licenses", fixture.license.ID,
		mock.MatchedBy(func(before licensedomain.License) bool {
			return before.IdentityID != nil && *before.IdentityID == fixture.seed.Identity.ID
		}),
		mock.MatchedBy(func(after licensedomain.License) bool {
			return after.IdentityID == nil && after.ListingID == nil && after.PriceUSD == fixture.license.PriceUSD
		}),
	).Return(nil).Once()
	audit.On("RecordUpdate", "payouts", fixture.payout.ID, mock.Anything,
		mock.MatchedBy(func(after payoutdomain.Payout) bool {
			return after.UserID == nil && after.Reference == fixture.payout.Reference
		}),
	).Return(nil).Once()

	var res cascade.PurgeResult
	err := env.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = newCascade(env, audit).Purging(context.Background(), tx, nil, []uuid.UUID{fixture.seed.Identity.ID}, &fixture.seed.User.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, cascade.PurgeResult{LicensesDetached: 1, PayoutsDetached: 1}, res)
	audit.AssertExpectations(t)
}

func TestPurgingWithoutUserLeavesPayoutsAlone(t *testing.T) {
	env := stack.New(t)
	fixture := newPurgeFixture(t, env)

	audit := new(auditMock)
	audit.On("RecordUpdate", "licenses", fixture.license.ID, mock.Anything, mock.Anything).Return(nil).Once()

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := newCascade(env, audit).Purging(context.Background(), tx, nil, []uuid.UUID{fixture.seed.Identity.ID}, nil)
		return err
	})
	require.NoError(t, err)
	audit.AssertExpectations(t)
	audit.AssertNotCalled(t, "RecordUpdate", "payouts", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurgingAuditFailureIsCascadeFailure(t *testing.T) {
	env := stack.New(t)
	fixture := newPurgeFixture(t, env)

	audit := new(auditMock)
	audit.On("RecordUpdate", "licenses", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("audit store unavailable"))

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := newCascade(env, audit).Purging(context.Background(), tx, nil, []uuid.UUID{fixture.seed.Identity.ID}, &fixture.seed.User.ID)
		return err
	})
	require.ErrorIs(t, err, rules.ErrReferentialCascadeFailure)
	assert.Equal(t, "cascade_"+cascade.StepDetachLicenses, rules.CodeOf(err))
	audit.AssertNotCalled(t, "RecordUpdate", "payouts", mock.Anything, mock.Anything, mock.Anything)

	// the identity and its references are untouched
	kept, err := env.Licenses.Get(context.Background(), fixture.license.ID)
	require.NoError(t, err)
	assert.Equal(t, &fixture.seed.Identity.ID, kept.IdentityID)
}

func TestIdentityCascadeWithoutDeletedAtUsesClock(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	license := newLicense(t, env, seed.Identity.ID)
	env.Clock.Advance(time.Hour)

	audit := new(auditMock)
	audit.On("RecordUpdate", "licenses", license.ID, mock.Anything, mock.Anything).Return(nil).Once()

	identity := seed.Identity
	identity.DeletedAt = nil
	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := newCascade(env, audit).IdentitySoftDeleted(context.Background(), tx, nil, identity)
		return err
	})
	require.NoError(t, err)
	audit.AssertExpectations(t)

	got, err := env.Licenses.Get(context.Background(), license.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.UpdatedAt.Equal(env.Clock.Now()), "updated_at %s", got.UpdatedAt)
}
