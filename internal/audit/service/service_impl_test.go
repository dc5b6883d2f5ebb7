package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/audit/repository"
	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	"github.com/actorhub/actorhub/internal/testutil/dbtest"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userRow struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	conn := dbtest.Open(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Rules: config.NewStaticRulesHolder(config.DefaultRulesConfig()),
		Repo:  repository.Provide(),
	}).(*Service)
	return svc, conn, fake
}

func countAudit(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM audit_logs`).Scan(&n).Error)
	return n
}

func TestRecordUpdateSkipsTimestampOnlyChanges(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	before := userRow{ID: uuid.New(), Email: "ada@example.com", Tier: "FREE", UpdatedAt: time.Unix(1, 0)}
	after := before
	after.UpdatedAt = time.Unix(2, 0)

	require.NoError(t, svc.RecordUpdate(ctx, db, nil, "users", before.ID, before, after))
	assert.Zero(t, countAudit(t, db))

	after.Tier = "PRO"
	require.NoError(t, svc.RecordUpdate(ctx, db, nil, "users", before.ID, before, after))
	assert.EqualValues(t, 1, countAudit(t, db))
}

func TestRecordMasksAndAttributesActor(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	actor := uuid.New()
	require.NoError(t, db.Exec(`INSERT INTO users (id, email) VALUES (?, ?)`, actor, "ops@example.com").Error)

	row := userRow{ID: uuid.New(), Email: "ada@example.com", Tier: "FREE"}
	require.NoError(t, svc.RecordInsert(ctx, db, &actor, "users", row.ID, row))

	var entry auditdomain.AuditLog
	require.NoError(t, db.Raw(`SELECT * FROM audit_logs`).Scan(&entry).Error)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, actor, *entry.ActorID)
	assert.Equal(t, auditdomain.ActionInsert, entry.Action)
	assert.Empty(t, entry.OldValues)

	var values map[string]any
	require.NoError(t, json.Unmarshal(entry.NewValues, &values))
	assert.Equal(t, "****@example.com", values["email"])
	assert.Equal(t, "FREE", values["tier"])
	assert.NotContains(t, values, "created_at")
	assert.NotContains(t, values, "updated_at")
}

func TestRecordIgnoresUntrackedTables(t *testing.T) {
	svc, db, _ := newTestService(t)
	require.NoError(t, svc.RecordInsert(context.Background(), db, nil, "notifications", uuid.New(), map[string]any{"title": "hi"}))
	assert.Zero(t, countAudit(t, db))
}

func TestAuditRowsRollBackWithTheirTransaction(t *testing.T) {
	svc, db, _ := newTestService(t)
	boom := errors.New("boom")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.RecordDelete(context.Background(), tx, nil, "licenses", uuid.New(), map[string]any{"id": "x"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, countAudit(t, db))
}

func TestListPaginates(t *testing.T) {
	svc, db, fake := newTestService(t)
	ctx := context.Background()
	resource := uuid.New()

	for i := 0; i < 3; i++ {
		fake.Advance(time.Second)
		require.NoError(t, svc.RecordInsert(ctx, db, nil, "payouts", resource, map[string]any{"n": i}))
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{ResourceID: resource.String(), Pagination: paginationOf(2)})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		ResourceID: resource.String(),
		Pagination: paginationWithToken(2, first.NextPageToken),
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.True(t, second.AuditLogs[0].CreatedAt.Before(first.AuditLogs[1].CreatedAt))

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "TRUNCATE"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}
