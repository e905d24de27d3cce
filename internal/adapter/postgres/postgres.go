package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS auction_records (
	identity          TEXT PRIMARY KEY,
	url               TEXT NOT NULL,
	fingerprint       TEXT NOT NULL,
	serialized_record TEXT NOT NULL,
	top_bid           TEXT,
	auction_status    TEXT,
	participant_count INTEGER,
	first_seen_at     TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS failed_urls (
	url                    TEXT PRIMARY KEY,
	identity               TEXT NOT NULL DEFAULT '',
	error_kind             TEXT NOT NULL,
	failure_reason         TEXT NOT NULL,
	retry_count            INTEGER NOT NULL DEFAULT 1,
	first_failed_at        TIMESTAMPTZ NOT NULL,
	last_attempt_timestamp TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS failed_urls_last_attempt_idx ON failed_urls (last_attempt_timestamp DESC);
`

// Connect opens a connection pool and makes sure the schema exists.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
