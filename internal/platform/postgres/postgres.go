// Package postgres opens the relational store used by the denylist, API key
// and history stores.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"rfcheck/internal/platform/config"
)

// Open connects with lib/pq and verifies the connection. Returns nil, nil
// when no URL is configured.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Schema creates the tables used by the Postgres-backed stores.
const Schema = `
CREATE TABLE IF NOT EXISTS rfc_denylist (
    rfc         TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS api_keys (
    id           UUID PRIMARY KEY,
    owner_id     UUID NOT NULL,
    name         TEXT NOT NULL,
    prefix       TEXT NOT NULL,
    key_hash     TEXT NOT NULL UNIQUE,
    created_at   TIMESTAMPTZ NOT NULL,
    revoked_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS api_keys_owner_idx ON api_keys (owner_id);

CREATE TABLE IF NOT EXISTS validation_history (
    id            UUID PRIMARY KEY,
    caller_id     TEXT NOT NULL,
    rfc           TEXT NOT NULL,
    success       BOOLEAN NOT NULL,
    valid         BOOLEAN,
    message       TEXT NOT NULL,
    source        TEXT NOT NULL DEFAULT '',
    checked_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS validation_history_caller_idx ON validation_history (caller_id, checked_at DESC);
`

// Migrate applies Schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
