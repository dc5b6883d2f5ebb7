package service_test

import (
	"context"
	"strings"
	"testing"

	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListingBuildsSlug(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)

	assert.True(t, strings.HasPrefix(seed.Listing.Slug, "ada-voice-pack-"), seed.Listing.Slug)
	assert.Equal(t, seed.Listing.ID.String()[:8], strings.TrimPrefix(seed.Listing.Slug, "ada-voice-pack-"))
	assert.True(t, seed.Listing.IsActive)

	_, err := env.Listings.Create(context.Background(), nil, listingdomain.CreateListingRequest{IdentityID: seed.Identity.ID, Title: " "})
	assert.ErrorIs(t, err, listingdomain.ErrInvalidTitle)

	_, err = env.Listings.Create(context.Background(), nil, listingdomain.CreateListingRequest{IdentityID: uuid.New(), Title: "Orphan"})
	assert.ErrorIs(t, err, listingdomain.ErrIdentityNotFound)
}

func TestOneActiveListingPerIdentity(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	_, err := env.Listings.Create(ctx, nil, listingdomain.CreateListingRequest{IdentityID: seed.Identity.ID, Title: "Second"})
	require.ErrorIs(t, err, rules.ErrConstraintViolation)

	_, err = env.Listings.Deactivate(ctx, nil, seed.Listing.ID)
	require.NoError(t, err)
	second, err := env.Listings.Create(ctx, nil, listingdomain.CreateListingRequest{IdentityID: seed.Identity.ID, Title: "Second"})
	require.NoError(t, err)
	assert.True(t, second.IsActive)

	_, err = env.Listings.Activate(ctx, nil, seed.Listing.ID)
	assert.ErrorIs(t, err, rules.ErrConstraintViolation)
}

func TestActivateListingOfDeletedIdentity(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	require.NoError(t, env.Identities.SoftDelete(ctx, nil, seed.Identity.ID))

	_, err := env.Listings.Activate(ctx, nil, seed.Listing.ID)
	require.ErrorIs(t, err, rules.ErrBusinessRuleViolation)
	assert.Equal(t, listingdomain.CodeIdentityDeleted, rules.CodeOf(err))

	// deactivating is always allowed
	_, err = env.Listings.Deactivate(ctx, nil, seed.Listing.ID)
	assert.NoError(t, err)
}
