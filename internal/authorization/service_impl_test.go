package authorization

import (
	"context"
	"testing"

	"github.com/actorhub/actorhub/internal/testutil/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewEnforcer(dbtest.Open(t))
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestRolesInheritDownward(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{"USER", ObjectLicense, ActionCreate, true},
		{"USER", ObjectIdentity, ActionCreate, false},
		{"USER", ObjectAuditLog, ActionView, false},
		{"CREATOR", ObjectIdentity, ActionCreate, true},
		{"CREATOR", ObjectUsage, ActionIngest, true},
		{"CREATOR", ObjectIdentity, ActionPurge, false},
		{"CREATOR", ObjectReconcile, ActionRun, false},
		{"ADMIN", ObjectIdentity, ActionPurge, true},
		{"ADMIN", ObjectReconcile, ActionRun, true},
		{"ADMIN", ObjectListing, ActionCreate, true},
	}
	for _, tc := range cases {
		err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s %s", tc.role, tc.object, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s %s", tc.role, tc.object, tc.action)
		}
	}
}

func TestAuthorizeRejectsBlankInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, " ", ObjectUser, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", "", ActionView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", ObjectUser, ""), ErrInvalidAction)
}

func TestSeedingIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)

	var first int64
	require.NoError(t, db.Table("casbin_rule").Count(&first).Error)

	_, err = NewEnforcer(db)
	require.NoError(t, err)

	var second int64
	require.NoError(t, db.Table("casbin_rule").Count(&second).Error)
	assert.Equal(t, first, second)
	assert.NotZero(t, first)
}

func TestRoleSubject(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleSubject(" ADMIN "))
}
