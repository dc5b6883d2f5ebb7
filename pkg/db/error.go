package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	// gorm translates some dialect errors when TranslateError is on
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if hasPGCode(err, pgUniqueViolation) {
		return true
	}

	// SQLite (error code 2067)
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func IsCheckViolationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	if hasPGCode(err, pgCheckViolation) || hasPGCode(err, pgNotNullViolation) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "CHECK constraint failed") || strings.Contains(msg, "NOT NULL constraint failed")
}

func IsForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	if hasPGCode(err, pgForeignKeyViolation) {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// ConstraintName returns the violated constraint name when the driver exposes it.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	// sqlite: "CHECK constraint failed: chk_licenses_price_usd (275)"
	msg := err.Error()
	if idx := strings.Index(msg, "CHECK constraint failed: "); idx >= 0 {
		name := msg[idx+len("CHECK constraint failed: "):]
		if end := strings.IndexAny(name, " ("); end >= 0 {
			name = name[:end]
		}
		return name
	}
	return ""
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == code {
		return true
	}
	return false
}
