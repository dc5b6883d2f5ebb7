package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReturnsPlaintextOnce(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	secret, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: " ci "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret.APIKey, "ah_live_"), secret.APIKey)

	var stored apikeydomain.APIKey
	require.NoError(t, env.DB.First(&stored, "id = ?", secret.ID).Error)
	assert.Equal(t, "ci", stored.Name)
	assert.Equal(t, apikeydomain.HashAPIKey(secret.APIKey), stored.KeyHash)
	assert.NotContains(t, stored.KeyHash, secret.APIKey)
	assert.True(t, strings.HasPrefix(secret.APIKey, stored.KeyPrefix))

	keys, err := env.APIKeys.List(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, secret.ID, keys[0].ID)
}

func TestCreateValidation(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	_, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "   "})
	require.ErrorIs(t, err, apikeydomain.ErrInvalidName)

	_, err = env.APIKeys.Create(ctx, apikeydomain.CreateRequest{Name: "ci"})
	require.ErrorIs(t, err, apikeydomain.ErrInvalidUser)
}

func TestActiveKeyNamesAreUniquePerUser(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	first, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci"})
	require.NoError(t, err)

	_, err = env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci"})
	require.ErrorIs(t, err, rules.ErrConstraintViolation)

	require.NoError(t, env.APIKeys.Revoke(ctx, seed.User.ID, first.ID))
	_, err = env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci"})
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	secret, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci"})
	require.NoError(t, err)

	key, err := env.APIKeys.Authenticate(ctx, secret.APIKey)
	require.NoError(t, err)
	assert.Equal(t, seed.User.ID, key.UserID)
	require.NotNil(t, key.LastUsedAt)
	assert.True(t, key.LastUsedAt.Equal(stack.Epoch))

	_, err = env.APIKeys.Authenticate(ctx, "sk_"+strings.TrimPrefix(secret.APIKey, "ah_live_"))
	require.ErrorIs(t, err, apikeydomain.ErrInvalidKey)

	_, err = env.APIKeys.Authenticate(ctx, "ah_live_"+strings.Repeat("0", 64))
	require.ErrorIs(t, err, apikeydomain.ErrInvalidKey)
}

func TestRevokedKeyNoLongerAuthenticates(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	secret, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci"})
	require.NoError(t, err)

	require.ErrorIs(t, env.APIKeys.Revoke(ctx, uuid.New(), secret.ID), apikeydomain.ErrNotFound)
	require.ErrorIs(t, env.APIKeys.Revoke(ctx, seed.User.ID, uuid.New()), apikeydomain.ErrNotFound)

	require.NoError(t, env.APIKeys.Revoke(ctx, seed.User.ID, secret.ID))
	// revoking twice is a no-op
	require.NoError(t, env.APIKeys.Revoke(ctx, seed.User.ID, secret.ID))

	_, err = env.APIKeys.Authenticate(ctx, secret.APIKey)
	require.ErrorIs(t, err, apikeydomain.ErrInvalidKey)

	keys, err := env.APIKeys.List(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.False(t, keys[0].IsActive)
	assert.NotNil(t, keys[0].RevokedAt)
}

func TestExpiredKeyIsRejected(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	expiresAt := stack.Epoch.Add(time.Hour)
	secret, err := env.APIKeys.Create(ctx, apikeydomain.CreateRequest{UserID: seed.User.ID, Name: "ci", ExpiresAt: &expiresAt})
	require.NoError(t, err)

	_, err = env.APIKeys.Authenticate(ctx, secret.APIKey)
	require.NoError(t, err)

	env.Clock.Advance(2 * time.Hour)
	_, err = env.APIKeys.Authenticate(ctx, secret.APIKey)
	require.ErrorIs(t, err, apikeydomain.ErrInvalidKey)
}
