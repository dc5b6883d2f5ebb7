package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityMachine(t *testing.T) {
	cases := []struct {
		from, to IdentityStatus
		ok       bool
	}{
		{IdentityPending, IdentityProcessing, true},
		{IdentityPending, IdentityVerified, false},
		{IdentityProcessing, IdentityVerified, true},
		{IdentityProcessing, IdentityRejected, true},
		{IdentityVerified, IdentitySuspended, true},
		{IdentityVerified, IdentityPending, false},
		{IdentityRejected, IdentityPending, true},
		{IdentitySuspended, IdentityVerified, true},
		{IdentitySuspended, IdentityPending, false},
		{IdentityVerified, IdentityVerified, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			err := IdentityMachine.Check(tc.from, tc.to)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIllegalTransition)
		})
	}
}

func TestIllegalTransitionMessage(t *testing.T) {
	err := IdentityMachine.Check(IdentityPending, IdentityVerified)
	require.Error(t, err)
	assert.Equal(t, "Invalid status transition: PENDING -> VERIFIED", err.Error())

	err = TrainingMachine.Check(TrainingCompleted, TrainingQueued)
	require.Error(t, err)
	assert.Equal(t, "Invalid training_status transition: COMPLETED -> QUEUED", err.Error())
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, TrainingMachine.Terminal(TrainingCompleted))
	assert.False(t, TrainingMachine.Terminal(TrainingFailed))
	assert.True(t, PaymentMachine.Terminal(PaymentRefunded))
	assert.Empty(t, TrainingMachine.Next(TrainingCompleted))
	assert.Equal(t, []PaymentStatus{PaymentCompleted, PaymentRefunded}, PaymentMachine.Next(PaymentDisputed))
}

func TestPaymentMachineNoOpAlwaysAllowed(t *testing.T) {
	for _, s := range PaymentMachine.States() {
		assert.NoError(t, PaymentMachine.Check(s, s), s)
	}
}

func TestUnknownStateIsConstraintViolation(t *testing.T) {
	err := IdentityMachine.Check(IdentityPending, IdentityStatus("ARCHIVED"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.False(t, errors.Is(err, ErrIllegalTransition))
}

func TestForcedEdgesOnlyViaForce(t *testing.T) {
	assert.ErrorIs(t, IdentityMachine.Check(IdentityPending, IdentitySuspended), ErrIllegalTransition)
	assert.NoError(t, IdentityMachine.Force(IdentityPending, IdentitySuspended))
	assert.NoError(t, IdentityMachine.Force(IdentityRejected, IdentitySuspended))

	assert.ErrorIs(t, TrainingMachine.Check(TrainingQueued, TrainingFailed), ErrIllegalTransition)
	assert.NoError(t, TrainingMachine.Force(TrainingQueued, TrainingFailed))
	assert.ErrorIs(t, TrainingMachine.Force(TrainingCompleted, TrainingFailed), ErrIllegalTransition)
}

func TestPayoutMachine(t *testing.T) {
	assert.NoError(t, PayoutMachine.Check(PayoutPending, PayoutCanceled))
	assert.NoError(t, PayoutMachine.Check(PayoutFailed, PayoutPending))
	assert.ErrorIs(t, PayoutMachine.Check(PayoutCanceled, PayoutPending), ErrIllegalTransition)
	assert.ErrorIs(t, PayoutMachine.Check(PayoutCompleted, PayoutFailed), ErrIllegalTransition)
}
