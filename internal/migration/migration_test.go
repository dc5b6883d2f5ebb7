package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestApplySQLiteIsReappliable(t *testing.T) {
	conn := openSQLite(t)

	require.NoError(t, Apply(conn))
	require.NoError(t, Apply(conn))

	for _, table := range []string{
		"users", "identities", "actor_packs", "listings", "licenses", "transactions",
		"payouts", "subscriptions", "usage_logs", "audit_logs", "api_keys", "notifications",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestSQLiteSchemaEnforcesChecks(t *testing.T) {
	conn := openSQLite(t)
	require.NoError(t, Apply(conn))

	require.NoError(t, conn.Exec(`INSERT INTO users (id, email) VALUES ('u1', 'a@example.com')`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO identities (id, user_id, display_name) VALUES ('i1', 'u1', 'Ada')`).Error)

	err := conn.Exec(`INSERT INTO licenses (id, identity_id, usage_type, license_type, price_usd, creator_payout_usd)
		VALUES ('l1', 'i1', 'PERSONAL', 'SINGLE_USE', 100, 150)`).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chk_licenses_creator_payout_usd")

	err = conn.Exec(`INSERT INTO identities (id, user_id, display_name) VALUES ('i2', 'u1', 'ADA')`).Error
	require.Error(t, err, "display names are unique per user regardless of case")

	err = conn.Exec(`INSERT INTO identities (id, user_id, display_name) VALUES ('i3', 'missing', 'Bob')`).Error
	require.Error(t, err, "foreign keys are enforced")
}
