package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDefaults(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	seed := env.Seed(t, false)

	txn, err := env.Transactions.Record(ctx, transactiondomain.RecordRequest{
		UserID: &seed.User.ID,
		Type:   "purchase",
		Amount: 49.99,
	})
	require.NoError(t, err)
	assert.Equal(t, transactiondomain.TypePurchase, txn.Type)
	assert.Equal(t, rules.PaymentPending, txn.Status)
	assert.Equal(t, "USD", txn.Currency)

	got, err := env.Transactions.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.InDelta(t, 49.99, got.Amount, 0.0001)

	list, err := env.Transactions.ListByUser(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, txn.ID, list[0].ID)
}

func TestRecordValidation(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()
	bogus := rules.PaymentStatus("LOST")

	cases := []struct {
		name string
		req  transactiondomain.RecordRequest
		code string
	}{
		{"unknown type", transactiondomain.RecordRequest{Type: "GIFT", Amount: 1}, "chk_transactions_type"},
		{"unknown status", transactiondomain.RecordRequest{Type: transactiondomain.TypeFee, Status: &bogus, Amount: 1}, "chk_transactions_status"},
		{"negative amount", transactiondomain.RecordRequest{Type: transactiondomain.TypeRefund, Amount: -1}, "chk_transactions_amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Transactions.Record(ctx, tc.req)
			require.ErrorIs(t, err, rules.ErrConstraintViolation)
			assert.Equal(t, tc.code, rules.CodeOf(err))
		})
	}
}

func TestUpdateStatusAcceptsAnyKnownStatus(t *testing.T) {
	env := stack.New(t)
	ctx := context.Background()

	completed := rules.PaymentCompleted
	txn, err := env.Transactions.Record(ctx, transactiondomain.RecordRequest{Type: transactiondomain.TypeCredit, Status: &completed, Amount: 5})
	require.NoError(t, err)

	env.Clock.Advance(time.Minute)
	updated, err := env.Transactions.UpdateStatus(ctx, txn.ID, rules.PaymentPending)
	require.NoError(t, err)
	assert.Equal(t, rules.PaymentPending, updated.Status)
	assert.True(t, updated.UpdatedAt.After(txn.UpdatedAt))

	_, err = env.Transactions.UpdateStatus(ctx, txn.ID, "LOST")
	require.ErrorIs(t, err, rules.ErrConstraintViolation)

	_, err = env.Transactions.UpdateStatus(ctx, uuid.New(), rules.PaymentFailed)
	require.ErrorIs(t, err, transactiondomain.ErrNotFound)
}

func TestGetUnknownTransaction(t *testing.T) {
	env := stack.New(t)

	_, err := env.Transactions.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, transactiondomain.ErrNotFound)
}
