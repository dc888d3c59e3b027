package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the audit tables if needed. Having the migration in
// code means a fresh database needs no separate migration step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY,
	object_id TEXT NOT NULL DEFAULT '',
	target TEXT NOT NULL,
	url TEXT NOT NULL,
	expires_at TIMESTAMPTZ,
	address TEXT NOT NULL DEFAULT '',
	methods TEXT[],
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS access_events (
	id TEXT PRIMARY KEY,
	target TEXT NOT NULL,
	outcome TEXT NOT NULL,
	method TEXT NOT NULL,
	address TEXT NOT NULL,
	at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_events_target_at ON access_events(target, at DESC);`
	_, err := pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
