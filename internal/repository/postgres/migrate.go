package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	"book-rental-backend/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates any missing tables and indexes. Every statement is
// idempotent, so it is safe to run on each start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("EnsureSchema", "schema.sql")
	_, err := db.ExecContext(ctx, schemaSQL)
	logger.DatabaseResult("EnsureSchema", 0, err)
	return mapError(err)
}
