// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"testing"

	"github.com/actorhub/actorhub/internal/migration"
	pkgdb "github.com/actorhub/actorhub/pkg/db"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an isolated in-memory database. The pool is pinned to one
// connection, so tests must issue every statement of a transaction on its tx handle.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := pkgdb.SQLiteDSN("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.Apply(conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return conn
}
