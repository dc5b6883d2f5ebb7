package cascade_test

import (
	"context"
	"testing"
	"time"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/actorhub/actorhub/internal/cascade"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	"github.com/actorhub/actorhub/internal/rules"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func train(t *testing.T, env *stack.Env, id uuid.UUID, steps ...rules.TrainingStatus) {
	t.Helper()
	for _, to := range steps {
		_, err := env.ActorPacks.TransitionTraining(context.Background(), nil, id, actorpackdomain.TransitionTrainingRequest{Status: to})
		require.NoError(t, err)
	}
}

func newLicense(t *testing.T, env *stack.Env, identityID uuid.UUID) licensedomain.License {
	t.Helper()
	license, err := env.Licenses.Create(context.Background(), nil, licensedomain.CreateLicenseRequest{
		IdentityID:  identityID,
		UsageType:   licensedomain.UsagePersonal,
		LicenseType: licensedomain.LicenseSingleUse,
		PriceUSD:    10,
	})
	require.NoError(t, err)
	return license
}

func TestIdentitySoftDeleteFailsInFlightTraining(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	train(t, env, seed.ActorPack.ID, rules.TrainingQueued)
	active := newLicense(t, env, seed.Identity.ID)
	inactive := newLicense(t, env, seed.Identity.ID)
	_, err := env.Licenses.Deactivate(ctx, nil, inactive.ID)
	require.NoError(t, err)
	licenseAuditBefore := env.Count(t, "audit_logs", "resource_type = ? AND action = ?", "licenses", "UPDATE")

	require.NoError(t, env.Identities.SoftDelete(ctx, nil, seed.Identity.ID))

	identity, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)
	require.NotNil(t, identity.DeletedAt)
	assert.Equal(t, rules.IdentityPending, identity.Status)

	listing, err := env.Listings.Get(ctx, seed.Listing.ID)
	require.NoError(t, err)
	assert.False(t, listing.IsActive)

	pack, err := env.ActorPacks.Get(ctx, seed.ActorPack.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.TrainingFailed, pack.TrainingStatus)
	require.NotNil(t, pack.TrainingError)
	assert.Equal(t, actorpackdomain.IdentityDeletedError, *pack.TrainingError)
	assert.False(t, pack.IsAvailable)

	got, err := env.Licenses.Get(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// only the license that was still active gets a cascade audit entry
	assert.Equal(t, licenseAuditBefore+1, env.Count(t, "audit_logs", "resource_type = ? AND action = ?", "licenses", "UPDATE"))
}

func TestIdentitySoftDeleteKeepsCompletedTraining(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	train(t, env, seed.ActorPack.ID, rules.TrainingQueued, rules.TrainingProcessing, rules.TrainingCompleted)
	_, err := env.ActorPacks.SetAvailability(ctx, nil, seed.ActorPack.ID, true)
	require.NoError(t, err)

	require.NoError(t, env.Identities.SoftDelete(ctx, nil, seed.Identity.ID))

	pack, err := env.ActorPacks.Get(ctx, seed.ActorPack.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.TrainingCompleted, pack.TrainingStatus)
	assert.Nil(t, pack.TrainingError)
	assert.False(t, pack.IsAvailable)
}

func TestIdentitySoftDeleteIsIdempotent(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	require.NoError(t, env.Identities.SoftDelete(ctx, nil, seed.Identity.ID))
	audits := env.Count(t, "audit_logs", "")
	first, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)

	env.Clock.Advance(time.Minute)
	require.NoError(t, env.Identities.SoftDelete(ctx, nil, seed.Identity.ID))

	second, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)
	assert.True(t, first.DeletedAt.Equal(*second.DeletedAt))
	assert.Equal(t, audits, env.Count(t, "audit_logs", ""))
}

func TestUserSoftDeleteCascadesThroughOwnedRows(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, true)
	ctx := context.Background()

	train(t, env, seed.ActorPack.ID, rules.TrainingQueued, rules.TrainingProcessing)
	license := newLicense(t, env, seed.Identity.ID)
	sub, err := env.Subscriptions.Create(ctx, nil, subscriptiondomain.CreateSubscriptionRequest{
		UserID: seed.User.ID,
		Plan:   "pro",
		Amount: 29,
	})
	require.NoError(t, err)
	key, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci"})
	require.NoError(t, err)

	actor := uuid.New()
	require.NoError(t, env.DB.Exec(`INSERT INTO users (id, email) VALUES (?, ?)`, actor, "ops@example.com").Error)
	require.NoError(t, env.Users.SoftDelete(ctx, &actor, seed.User.ID))

	user, err := env.Users.Get(ctx, seed.User.ID)
	require.NoError(t, err)
	assert.True(t, user.IsDeleted())
	assert.False(t, user.IsActive)

	identity, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.IdentitySuspended, identity.Status)
	require.NotNil(t, identity.DeletedAt)
	assert.True(t, identity.DeletedAt.Equal(*user.DeletedAt))

	listing, err := env.Listings.Get(ctx, seed.Listing.ID)
	require.NoError(t, err)
	assert.False(t, listing.IsActive)

	pack, err := env.ActorPacks.Get(ctx, seed.ActorPack.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.TrainingFailed, pack.TrainingStatus)

	gotLicense, err := env.Licenses.Get(ctx, license.ID)
	require.NoError(t, err)
	assert.False(t, gotLicense.IsActive)

	gotSub, err := env.Subscriptions.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusCanceled, gotSub.Status)
	assert.NotNil(t, gotSub.CanceledAt)

	_, err = env.APIKeys.Authenticate(ctx, key.APIKey)
	assert.Error(t, err)

	// every cascaded write is attributed to the deleting actor
	assert.Zero(t, env.Count(t, "audit_logs", "actor_id IS NULL AND action = ? AND resource_type IN (?, ?, ?, ?)", "UPDATE",
		"users", "identities", "licenses", "subscriptions"))
	assert.EqualValues(t, 1, env.Count(t, "audit_logs", "actor_id = ? AND resource_type = ? AND action = ?", actor, "subscriptions", "UPDATE"))
}

func TestCascadeFailureRollsBackSoftDelete(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	require.NoError(t, env.DB.Exec(`CREATE TRIGGER block_listing_update BEFORE UPDATE ON listings
		BEGIN SELECT RAISE(ABORT, 'listings are read-only'); END`).Error)

	err := env.Identities.SoftDelete(ctx, nil, seed.Identity.ID)
	require.ErrorIs(t, err, rules.ErrReferentialCascadeFailure)
	assert.Equal(t, "cascade_"+cascade.StepDeactivateListings, rules.CodeOf(err))

	identity, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)
	assert.Nil(t, identity.DeletedAt)

	listing, err := env.Listings.Get(ctx, seed.Listing.ID)
	require.NoError(t, err)
	assert.True(t, listing.IsActive)
}
