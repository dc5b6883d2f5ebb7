package service_test

import (
	"context"
	"strings"
	"testing"

	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPayoutComputesNetAmount(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)

	payout, err := env.Payouts.Request(context.Background(), nil, payoutdomain.RequestPayoutRequest{
		UserID: seed.User.ID,
		Period: "2026-02",
		Amount: 120,
		Fee:    2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, rules.PayoutPending, payout.Status)
	require.NotNil(t, payout.NetAmount)
	assert.InDelta(t, 117.5, *payout.NetAmount, 0.001)
	assert.True(t, strings.HasPrefix(payout.Reference, "po_"), payout.Reference)
}

func TestRequestPayoutValidation(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	cases := []struct {
		name string
		req  payoutdomain.RequestPayoutRequest
		want error
	}{
		{"bad period", payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-13", Amount: 10}, payoutdomain.ErrInvalidPeriod},
		{"zero amount", payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-01", Amount: 0}, rules.ErrConstraintViolation},
		{"fee above amount", payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-01", Amount: 10, Fee: 11}, rules.ErrConstraintViolation},
		{"unknown user", payoutdomain.RequestPayoutRequest{UserID: uuid.New(), Period: "2026-01", Amount: 10}, payoutdomain.ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Payouts.Request(ctx, nil, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := env.Payouts.Request(ctx, nil, payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-01", Amount: 10})
	require.NoError(t, err)
	_, err = env.Payouts.Request(ctx, nil, payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-01", Amount: 12})
	assert.ErrorIs(t, err, rules.ErrConstraintViolation)
}

func TestCompletedPayoutBooksTransaction(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	payout, err := env.Payouts.Request(ctx, nil, payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-02", Amount: 50, Fee: 1})
	require.NoError(t, err)

	_, err = env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutCompleted})
	require.ErrorIs(t, err, rules.ErrIllegalTransition)

	_, err = env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutProcessing})
	require.NoError(t, err)
	done, err := env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutCompleted})
	require.NoError(t, err)
	require.NotNil(t, done.ProcessedAt)
	assert.Equal(t, stack.Epoch, *done.ProcessedAt)

	txns, err := env.Transactions.ListByUser(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, transactiondomain.TypePayout, txns[0].Type)
	assert.InDelta(t, 49, txns[0].Amount, 0.001)
	require.NotNil(t, txns[0].ProviderRef)
	assert.Equal(t, payout.Reference, *txns[0].ProviderRef)

	unread, err := env.Notifications.ListUnread(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, notificationdomain.TypePayoutCompleted, unread[0].Type)

	_, err = env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutFailed})
	assert.ErrorIs(t, err, rules.ErrIllegalTransition)
}

func TestFailedPayoutCanBeRetried(t *testing.T) {
	env := stack.New(t)
	seed := env.Seed(t, false)
	ctx := context.Background()

	payout, err := env.Payouts.Request(ctx, nil, payoutdomain.RequestPayoutRequest{UserID: seed.User.ID, Period: "2026-02", Amount: 50})
	require.NoError(t, err)
	_, err = env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutProcessing})
	require.NoError(t, err)

	failed, err := env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutFailed})
	require.NoError(t, err)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "Payout failed", *failed.FailureReason)

	retried, err := env.Payouts.TransitionStatus(ctx, nil, payout.ID, payoutdomain.TransitionRequest{Status: rules.PayoutPending})
	require.NoError(t, err)
	assert.Nil(t, retried.FailureReason)

	assert.Zero(t, env.Count(t, "transactions", ""))
	assert.EqualValues(t, 3, env.Count(t, "audit_logs", "resource_type = ? AND action = ?", "payouts", "UPDATE"))
}
