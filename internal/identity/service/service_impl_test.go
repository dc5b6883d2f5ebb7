package service_test

import (
	"context"
	"testing"

	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIdentityRequiresLiveOwner(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()

	_, err := env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: uuid.New(), DisplayName: "Ghost"})
	assert.ErrorIs(t, err, identitydomain.ErrOwnerNotFound)

	owner, err := env.Users.Create(ctx, nil, userdomain.CreateUserRequest{Email: "owner@example.com"})
	require.NoError(t, err)

	_, err = env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: "   "})
	assert.ErrorIs(t, err, identitydomain.ErrInvalidDisplayName)

	identity, err := env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: " Nova "})
	require.NoError(t, err)
	assert.Equal(t, "Nova", identity.DisplayName)
	assert.Equal(t, rules.IdentityPending, identity.Status)

	require.NoError(t, env.Users.SoftDelete(ctx, nil, owner.ID))
	_, err = env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: "Late"})
	assert.ErrorIs(t, err, identitydomain.ErrOwnerNotFound)
}

func TestIdentityStatusFollowsMachine(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	_, err := env.Identities.TransitionStatus(ctx, nil, seed.Identity.ID, rules.IdentityVerified)
	require.ErrorIs(t, err, rules.ErrIllegalTransition)
	assert.Equal(t, "Invalid status transition: PENDING -> VERIFIED", err.Error())

	// suspension is only reachable from VERIFIED outside a cascade
	_, err = env.Identities.TransitionStatus(ctx, nil, seed.Identity.ID, rules.IdentitySuspended)
	require.ErrorIs(t, err, rules.ErrIllegalTransition)

	for _, to := range []rules.IdentityStatus{rules.IdentityProcessing, rules.IdentityVerified, rules.IdentitySuspended, rules.IdentityVerified} {
		got, err := env.Identities.TransitionStatus(ctx, nil, seed.Identity.ID, to)
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
	}

	_, err = env.Identities.TransitionStatus(ctx, nil, seed.Identity.ID, "ARCHIVED")
	require.ErrorIs(t, err, rules.ErrConstraintViolation)

	assert.EqualValues(t, 4, env.Count(t, "audit_logs", "resource_type = ? AND resource_id = ? AND action = ?", "identities", seed.Identity.ID, "UPDATE"))
}

func TestDeletedIdentityCannotBeUpdated(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	require.NoError(t, env.Identities.SoftDelete(ctx, nil, seed.Identity.ID))

	_, err := env.Identities.Update(ctx, nil, seed.Identity.ID, identitydomain.UpdateIdentityRequest{AllowCommercialUse: ptr(true)})
	assert.ErrorIs(t, err, identitydomain.ErrNotFound)

	live, err := env.Identities.ListByUser(ctx, seed.User.ID)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestDisplayNameIsUniquePerOwnerIgnoringCase(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()

	owner, err := env.Users.Create(ctx, nil, userdomain.CreateUserRequest{Email: "names@example.com", Role: userdomain.RoleCreator})
	require.NoError(t, err)
	first, err := env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: "Nova"})
	require.NoError(t, err)

	_, err = env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: "NOVA"})
	require.ErrorIs(t, err, rules.ErrConstraintViolation)
	assert.Equal(t, "uq_identities_user_display_name", rules.CodeOf(err))

	// another owner may reuse the name
	stranger, err := env.Users.Create(ctx, nil, userdomain.CreateUserRequest{Email: "stranger@example.com"})
	require.NoError(t, err)
	_, err = env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: stranger.ID, DisplayName: "nova"})
	require.NoError(t, err)

	second, err := env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: "Orion"})
	require.NoError(t, err)
	_, err = env.Identities.Update(ctx, nil, second.ID, identitydomain.UpdateIdentityRequest{DisplayName: ptr("nova")})
	require.ErrorIs(t, err, rules.ErrConstraintViolation)
	assert.Equal(t, "uq_identities_user_display_name", rules.CodeOf(err))

	// renaming to a different case of its own name is not a collision
	renamed, err := env.Identities.Update(ctx, nil, first.ID, identitydomain.UpdateIdentityRequest{DisplayName: ptr("NOVA")})
	require.NoError(t, err)
	assert.Equal(t, "NOVA", renamed.DisplayName)

	require.NoError(t, env.Identities.SoftDelete(ctx, nil, first.ID))
	_, err = env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: owner.ID, DisplayName: "nova"})
	require.NoError(t, err)
}

func TestDisplayNameCollisionFoldsNonASCII(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	_, err := env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: seed.User.ID, DisplayName: "Émile"})
	require.NoError(t, err)
	_, err = env.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{UserID: seed.User.ID, DisplayName: "émile"})
	require.ErrorIs(t, err, rules.ErrConstraintViolation)
	assert.Equal(t, "uq_identities_user_display_name", rules.CodeOf(err))
}

func TestPurgeIdentityAuditsDetachedLicenses(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	license, err := env.Licenses.Create(ctx, nil, licensedomain.CreateLicenseRequest{
		IdentityID:  seed.Identity.ID,
		UsageType:   licensedomain.UsagePersonal,
		LicenseType: licensedomain.LicenseSingleUse,
		PriceUSD:    3,
	})
	require.NoError(t, err)
	require.NotNil(t, license.ListingID)

	require.NoError(t, env.Identities.Purge(ctx, nil, seed.Identity.ID))

	_, err = env.Identities.Get(ctx, seed.Identity.ID)
	assert.ErrorIs(t, err, identitydomain.ErrNotFound)
	kept, err := env.Licenses.Get(ctx, license.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.IdentityID)
	assert.Nil(t, kept.ListingID)
	assert.Equal(t, license.LicenseeID, kept.LicenseeID)

	assert.EqualValues(t, 1, env.Count(t, "audit_logs", "resource_type = ? AND resource_id = ? AND action = ?", "identities", seed.Identity.ID, "DELETE"))
	assert.EqualValues(t, 1, env.Count(t, "audit_logs", "resource_type = ? AND resource_id = ? AND action = ?", "licenses", license.ID, "UPDATE"))
}

func ptr[T any](v T) *T { return &v }
