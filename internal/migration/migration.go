package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embeddedMigrations embed.FS

const (
	postgresDir = "migrations/postgres"
	sqliteDir   = "migrations/sqlite"
)

// Apply brings the schema up to date for whichever dialect conn uses.
// Both paths are safe to run on every start.
func Apply(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	switch conn.Dialector.Name() {
	case "postgres":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	case "sqlite":
		return applySQLite(conn)
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", conn.Dialector.Name())
	}
}

// RunMigrations applies the versioned postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, postgresDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// applySQLite executes the embedded sqlite scripts in name order. They only use
// IF NOT EXISTS statements, so no version table is kept.
func applySQLite(conn *gorm.DB) error {
	entries, err := fs.ReadDir(embeddedMigrations, sqliteDir)
	if err != nil {
		return fmt.Errorf("open sqlite schema: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		body, err := fs.ReadFile(embeddedMigrations, sqliteDir+"/"+entry.Name())
		if err != nil {
			return err
		}
		if err := conn.Exec(string(body)).Error; err != nil {
			return fmt.Errorf("apply %s: %w", entry.Name(), err)
		}
	}
	return nil
}
