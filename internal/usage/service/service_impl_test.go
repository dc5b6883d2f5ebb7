package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"github.com/actorhub/actorhub/internal/usage/liveevents"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRecordRejectsInvalidEvents(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	cases := []struct {
		name string
		req  usagedomain.RecordUsageRequest
		want error
	}{
		{
			name: "unknown action",
			req:  usagedomain.RecordUsageRequest{Action: "stream", IdentityID: &seed.Identity.ID},
			want: rules.ErrConstraintViolation,
		},
		{
			name: "verify without identity",
			req:  usagedomain.RecordUsageRequest{Action: usagedomain.ActionVerify},
			want: usagedomain.ErrInvalidIdentity,
		},
		{
			name: "download without actor pack",
			req:  usagedomain.RecordUsageRequest{Action: usagedomain.ActionDownload, IdentityID: &seed.Identity.ID},
			want: usagedomain.ErrInvalidActorPack,
		},
		{
			name: "similarity above one",
			req: usagedomain.RecordUsageRequest{
				Action:          usagedomain.ActionVerify,
				IdentityID:      &seed.Identity.ID,
				SimilarityScore: ptr(1.2),
			},
			want: usagedomain.ErrInvalidSimilarityScore,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Usage.Record(ctx, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, env.Count(t, "usage_logs", ""))
}

func TestRecordFeedsIdentityAndPackCounters(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	_, err := env.Usage.Record(ctx, usagedomain.RecordUsageRequest{
		Action:          usagedomain.ActionVerify,
		IdentityID:      &seed.Identity.ID,
		Matched:         ptr(true),
		SimilarityScore: ptr(0.97),
	})
	require.NoError(t, err)
	_, err = env.Usage.Record(ctx, usagedomain.RecordUsageRequest{
		Action:     usagedomain.ActionVerify,
		IdentityID: &seed.Identity.ID,
		Matched:    ptr(false),
	})
	require.NoError(t, err)
	_, err = env.Usage.Record(ctx, usagedomain.RecordUsageRequest{
		Action:      usagedomain.ActionDownload,
		IdentityID:  &seed.Identity.ID,
		ActorPackID: &seed.ActorPack.ID,
	})
	require.NoError(t, err)

	identity, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.TotalVerifications)

	pack, err := env.ActorPacks.Get(ctx, seed.ActorPack.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pack.TotalDownloads)
	assert.Equal(t, int64(3), env.Count(t, "usage_logs", ""))
}

func TestRecordIsIdempotentPerKey(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	req := usagedomain.RecordUsageRequest{
		Action:         usagedomain.ActionVerify,
		IdentityID:     &seed.Identity.ID,
		Matched:        ptr(true),
		IdempotencyKey: ptr(" verify-001 "),
	}
	first, err := env.Usage.Record(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, first.IdempotencyKey)
	assert.Equal(t, "verify-001", *first.IdempotencyKey)

	env.Clock.Advance(time.Minute)
	second, err := env.Usage.Record(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	identity, err := env.Identities.Get(ctx, seed.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.TotalVerifications)
	assert.Equal(t, int64(1), env.Count(t, "usage_logs", ""))
}

func TestRecordPublishesLiveEvents(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	sub, backlog, err := env.LiveEvents.Subscribe(seed.Identity.ID.String())
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, backlog)

	req := usagedomain.RecordUsageRequest{
		Action:         usagedomain.ActionVerify,
		IdentityID:     &seed.Identity.ID,
		Matched:        ptr(true),
		IdempotencyKey: ptr("live-1"),
	}
	recorded, err := env.Usage.Record(ctx, req)
	require.NoError(t, err)
	_, err = env.Usage.Record(ctx, req)
	require.NoError(t, err)

	var statuses []string
	for range 2 {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, recorded.ID.String(), ev.UsageLogID)
			assert.Equal(t, "verify", ev.Action)
			statuses = append(statuses, ev.Status)
		default:
			t.Fatal("expected a live event")
		}
	}
	assert.Equal(t, []string{liveevents.StatusAccepted, liveevents.StatusDeduplicated}, statuses)
}

func TestListPagesNewestFirst(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	var ids []uuid.UUID
	for range 3 {
		env.Clock.Advance(time.Second)
		rec, err := env.Usage.Record(ctx, usagedomain.RecordUsageRequest{
			Action:     usagedomain.ActionGenerate,
			IdentityID: &seed.Identity.ID,
		})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := env.Usage.Record(ctx, usagedomain.RecordUsageRequest{Action: usagedomain.ActionAPICall})
	require.NoError(t, err)

	req := usagedomain.ListUsageRequest{IdentityID: seed.Identity.ID.String()}
	req.PageSize = 2
	page, err := env.Usage.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, page.UsageLogs, 2)
	assert.Equal(t, ids[2], page.UsageLogs[0].ID)
	assert.Equal(t, ids[1], page.UsageLogs[1].ID)
	require.NotEmpty(t, page.NextPageToken)

	req.PageToken = page.NextPageToken
	page, err = env.Usage.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, page.UsageLogs, 1)
	assert.Equal(t, ids[0], page.UsageLogs[0].ID)

	_, err = env.Usage.List(ctx, usagedomain.ListUsageRequest{Action: "stream"})
	require.ErrorIs(t, err, usagedomain.ErrInvalidAction)
}
