package service_test

import (
	"context"
	"testing"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transition(t *testing.T, env *stack.Env, id uuid.UUID, to rules.TrainingStatus, reason *string) (actorpackdomain.ActorPack, error) {
	t.Helper()
	return env.ActorPacks.TransitionTraining(context.Background(), nil, id, actorpackdomain.TransitionTrainingRequest{Status: to, Error: reason})
}

func TestActorPackIsOnePerIdentity(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)

	assert.Equal(t, rules.TrainingPending, seed.ActorPack.TrainingStatus)
	assert.False(t, seed.ActorPack.IsAvailable)

	_, err := env.ActorPacks.Create(context.Background(), nil, actorpackdomain.CreateActorPackRequest{IdentityID: seed.Identity.ID, Name: "ada-v2"})
	assert.ErrorIs(t, err, actorpackdomain.ErrAlreadyExists)
}

func TestTrainingLifecycle(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()
	id := seed.ActorPack.ID

	_, err := transition(t, env, id, rules.TrainingProcessing, nil)
	require.ErrorIs(t, err, rules.ErrIllegalTransition)

	_, err = env.ActorPacks.UpdateProgress(ctx, nil, id, 10)
	require.ErrorIs(t, err, rules.ErrBusinessRuleViolation)

	_, err = transition(t, env, id, rules.TrainingQueued, nil)
	require.NoError(t, err)
	_, err = transition(t, env, id, rules.TrainingProcessing, nil)
	require.NoError(t, err)

	pack, err := env.ActorPacks.UpdateProgress(ctx, nil, id, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, pack.TrainingProgress)

	_, err = env.ActorPacks.UpdateProgress(ctx, nil, id, 101)
	require.ErrorIs(t, err, rules.ErrConstraintViolation)
	assert.Equal(t, "chk_actor_packs_training_progress", rules.CodeOf(err))

	pack, err = transition(t, env, id, rules.TrainingFailed, ptr("gpu lost"))
	require.NoError(t, err)
	require.NotNil(t, pack.TrainingError)
	assert.Equal(t, "gpu lost", *pack.TrainingError)

	pack, err = transition(t, env, id, rules.TrainingQueued, nil)
	require.NoError(t, err)
	assert.Nil(t, pack.TrainingError)
	assert.Zero(t, pack.TrainingProgress)

	_, err = transition(t, env, id, rules.TrainingProcessing, nil)
	require.NoError(t, err)
	pack, err = transition(t, env, id, rules.TrainingCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, pack.TrainingProgress)

	_, err = transition(t, env, id, rules.TrainingQueued, nil)
	require.ErrorIs(t, err, rules.ErrIllegalTransition)

	unread, err := env.Notifications.ListUnread(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	for _, n := range unread {
		assert.Equal(t, notificationdomain.TypeTrainingFinished, n.Type)
	}
}

func TestAvailabilityRequiresCompletedTraining(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	_, err := env.ActorPacks.SetAvailability(ctx, nil, seed.ActorPack.ID, true)
	require.ErrorIs(t, err, rules.ErrBusinessRuleViolation)
	assert.Equal(t, actorpackdomain.CodeNotTrained, rules.CodeOf(err))

	_, err = env.ActorPacks.SetAvailability(ctx, nil, seed.ActorPack.ID, false)
	require.NoError(t, err)

	_, err = env.ActorPacks.SetQualityScore(ctx, nil, seed.ActorPack.ID, ptr(120.0))
	require.ErrorIs(t, err, rules.ErrConstraintViolation)
	pack, err := env.ActorPacks.SetQualityScore(ctx, nil, seed.ActorPack.ID, ptr(87.5))
	require.NoError(t, err)
	require.NotNil(t, pack.QualityScore)
	assert.InDelta(t, 87.5, *pack.QualityScore, 0.001)
}

func ptr[T any](v T) *T { return &v }
