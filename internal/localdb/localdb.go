// Package localdb opens the client's local sqlite database and applies the
// embedded schema migrations.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/verdantlab/ranger/internal/migrations"
	"github.com/verdantlab/ranger/internal/models"
)

// RunMigrations applies all pending goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite database at dsn, migrates it to
// the current schema, and recovers queue items stranded by a crash. The
// caller owns the returned handle.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := recoverInFlight(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// recoverInFlight returns items left in flight by a previous process to
// pending. The database is single-process, so any in_flight row found at
// open time belongs to a flush that died before its cleanup ran; without
// this reset such an item would never be listed or claimable again.
func recoverInFlight(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`UPDATE queue_items SET status = ?, last_error = ? WHERE status = ?`,
		string(models.StatusPending), "interrupted", string(models.StatusInFlight))
	if err != nil {
		return fmt.Errorf("failed to recover in-flight items: %w", err)
	}
	return nil
}
