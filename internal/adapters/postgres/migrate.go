package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'student')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		event_date TIMESTAMPTZ NOT NULL,
		time_start TEXT NOT NULL,
		time_end TEXT NOT NULL,
		location TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
		total_capacity INT NOT NULL CHECK (total_capacity > 0),
		remaining_capacity INT NOT NULL CHECK (remaining_capacity >= 0 AND remaining_capacity <= total_capacity),
		created_by UUID NOT NULL REFERENCES users (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pending_events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		event_date TIMESTAMPTZ NOT NULL,
		time_start TEXT NOT NULL,
		time_end TEXT NOT NULL,
		location TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
		total_tickets INT NOT NULL CHECK (total_tickets > 0),
		requester_id UUID NOT NULL REFERENCES users (id),
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		admin_notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users (id),
		ticket_code TEXT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		status TEXT NOT NULL CHECK (status IN ('confirmed')),
		purchased_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT tickets_ticket_code_key UNIQUE (ticket_code)
	)`,
	`CREATE INDEX IF NOT EXISTS tickets_user_purchased_idx ON tickets (user_id, purchased_at DESC)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'NEW',
		dedupe_key TEXT NOT NULL
	)`,
}

// Migrate creates the schema. Statements are idempotent so restarts are
// safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
