package seed_test

import (
	"context"
	"testing"

	"github.com/actorhub/actorhub/internal/seed"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminCreatesOnce(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()

	first, err := seed.EnsureAdmin(ctx, env.DB, env.Users, env.APIKeys, " Ops@Example.com ")
	require.NoError(t, err)
	require.NotEmpty(t, first.APIKey)

	admin, err := env.Users.Get(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, userdomain.RoleAdmin, admin.Role)
	assert.Equal(t, "ops@example.com", admin.Email)

	key, err := env.APIKeys.Authenticate(ctx, first.APIKey)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, key.UserID)

	second, err := seed.EnsureAdmin(ctx, env.DB, env.Users, env.APIKeys, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Empty(t, second.APIKey)
	assert.Equal(t, int64(1), env.Count(t, "api_keys", "user_id = ?", first.UserID))
}

func TestEnsureAdminRequiresEmail(t *testing.T) {
	env := stack.New(t)

	_, err := seed.EnsureAdmin(context.Background(), env.DB, env.Users, env.APIKeys, "  ")
	require.ErrorIs(t, err, userdomain.ErrInvalidEmail)
}
