package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errRollback = errors.New("rollback")

func TestCreateValidation(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	_, err := env.Notifications.Create(ctx, notificationdomain.CreateRequest{Type: notificationdomain.TypePayoutCompleted, Title: "Paid"})
	require.ErrorIs(t, err, notificationdomain.ErrInvalidUser)

	_, err = env.Notifications.Create(ctx, notificationdomain.CreateRequest{UserID: seed.User.ID, Type: notificationdomain.TypePayoutCompleted, Title: "  "})
	require.ErrorIs(t, err, notificationdomain.ErrInvalidTitle)
}

func TestCreateTxRollsBackWithCaller(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)
	before := env.Count(t, "notifications", "user_id = ?", seed.User.ID)

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := env.Notifications.CreateTx(ctx, tx, notificationdomain.CreateRequest{
			UserID:  seed.User.ID,
			Type:    notificationdomain.TypeLicensePurchased,
			Title:   "New license",
			Payload: map[string]any{"license_id": uuid.NewString()},
		})
		require.NoError(t, err)
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
	assert.Equal(t, before, env.Count(t, "notifications", "user_id = ?", seed.User.ID))
}

func TestMarkReadAndListUnread(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)
	before, err := env.Notifications.ListUnread(ctx, seed.User.ID)
	require.NoError(t, err)

	first, err := env.Notifications.Create(ctx, notificationdomain.CreateRequest{UserID: seed.User.ID, Type: notificationdomain.TypePayoutCompleted, Title: "Paid"})
	require.NoError(t, err)
	env.Clock.Advance(time.Minute)
	second, err := env.Notifications.Create(ctx, notificationdomain.CreateRequest{UserID: seed.User.ID, Type: notificationdomain.TypePayoutFailed, Title: "Failed"})
	require.NoError(t, err)

	unread, err := env.Notifications.ListUnread(ctx, seed.User.ID)
	require.NoError(t, err)
	assert.Len(t, unread, len(before)+2)

	require.ErrorIs(t, env.Notifications.MarkRead(ctx, uuid.New(), first.ID), notificationdomain.ErrNotFound)
	require.ErrorIs(t, env.Notifications.MarkRead(ctx, seed.User.ID, uuid.New()), notificationdomain.ErrNotFound)

	require.NoError(t, env.Notifications.MarkRead(ctx, seed.User.ID, first.ID))
	require.NoError(t, env.Notifications.MarkRead(ctx, seed.User.ID, first.ID))

	unread, err = env.Notifications.ListUnread(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, unread, len(before)+1)
	ids := make([]uuid.UUID, 0, len(unread))
	for _, n := range unread {
		ids = append(ids, n.ID)
	}
	assert.Contains(t, ids, second.ID)
	assert.NotContains(t, ids, first.ID)

	_, err = env.Notifications.ListUnread(ctx, uuid.Nil)
	require.ErrorIs(t, err, notificationdomain.ErrInvalidUser)
}
