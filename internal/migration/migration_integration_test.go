//go:build integration

package migration

import (
	"context"
	"testing"

	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestApplyPostgresIsReappliable(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("actorhub"),
		tcpostgres.WithUsername("actorhub"),
		tcpostgres.WithPassword("actorhub"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Apply(conn))
	require.NoError(t, Apply(conn))

	// re-running the script body itself must also succeed
	body, err := embeddedMigrations.ReadFile(postgresDir + "/000001_init_schema.up.sql")
	require.NoError(t, err)
	require.NoError(t, conn.Exec(string(body)).Error)

	require.NoError(t, conn.Exec(`INSERT INTO users (id, email) VALUES ('7b0f9b8e-8d59-4a52-8a3d-0d6f3f6a0001', 'a@example.com')`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO identities (id, user_id, display_name)
		VALUES ('7b0f9b8e-8d59-4a52-8a3d-0d6f3f6a0002', '7b0f9b8e-8d59-4a52-8a3d-0d6f3f6a0001', 'Ada')`).Error)

	err = conn.Exec(`INSERT INTO licenses (id, identity_id, usage_type, license_type, price_usd, creator_payout_usd)
		VALUES ('7b0f9b8e-8d59-4a52-8a3d-0d6f3f6a0003', '7b0f9b8e-8d59-4a52-8a3d-0d6f3f6a0002', 'PERSONAL', 'SINGLE_USE', 100, 150)`).Error
	require.Error(t, err)
	assert.True(t, pkgdb.IsCheckViolationErr(err))
	assert.Equal(t, "chk_licenses_creator_payout_usd", pkgdb.ConstraintName(err))
}
