// Package repository records issued links and every presentation of them.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

// ErrNotFound is returned when a link id is unknown.
var ErrNotFound = errors.New("link not found")

// AuditLog is the audit trail used by the server and the worker.
type AuditLog interface {
	CreateLink(ctx context.Context, link *model.Link) error
	GetLink(ctx context.Context, id string) (*model.Link, error)
	RecordAccess(ctx context.Context, ev *model.AccessEvent) error
	ListAccess(ctx context.Context, target string, limit int) ([]model.AccessEvent, error)
}

// PostgresAuditLog wraps all SQL used throughout the server and worker.
type PostgresAuditLog struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditLog constructs a repository.
func NewPostgresAuditLog(pool *pgxpool.Pool) *PostgresAuditLog {
	return &PostgresAuditLog{pool: pool}
}

// CreateLink inserts an issued link.
func (r *PostgresAuditLog) CreateLink(ctx context.Context, link *model.Link) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO links (id, object_id, target, url, expires_at, address, methods, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, link.ID, link.ObjectID, link.Target, link.URL, link.ExpiresAt, link.Address, link.Methods, link.CreatedBy, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// GetLink returns a link by id.
func (r *PostgresAuditLog) GetLink(ctx context.Context, id string) (*model.Link, error) {
	var link model.Link
	row := r.pool.QueryRow(ctx, `
		SELECT id, object_id, target, url, expires_at, address, methods, created_by, created_at
		FROM links WHERE id=$1
	`, id)
	err := row.Scan(&link.ID, &link.ObjectID, &link.Target, &link.URL, &link.ExpiresAt,
		&link.Address, &link.Methods, &link.CreatedBy, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select link: %w", err)
	}
	return &link, nil
}

// RecordAccess inserts an access event.
func (r *PostgresAuditLog) RecordAccess(ctx context.Context, ev *model.AccessEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_events (id, target, outcome, method, address, at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, ev.ID, ev.Target, ev.Outcome, ev.Method, ev.Address, ev.At)
	if err != nil {
		return fmt.Errorf("insert access event: %w", err)
	}
	return nil
}

// ListAccess returns the most recent events for target, newest first. A
// limit of zero or less returns them all.
func (r *PostgresAuditLog) ListAccess(ctx context.Context, target string, limit int) ([]model.AccessEvent, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, target, outcome, method, address, at
		FROM access_events WHERE target=$1
		ORDER BY at DESC LIMIT $2
	`, target, lim)
	if err != nil {
		return nil, fmt.Errorf("select access events: %w", err)
	}
	defer rows.Close()
	var events []model.AccessEvent
	for rows.Next() {
		var ev model.AccessEvent
		if err := rows.Scan(&ev.ID, &ev.Target, &ev.Outcome, &ev.Method, &ev.Address, &ev.At); err != nil {
			return nil, fmt.Errorf("scan access event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access events: %w", err)
	}
	return events, nil
}
