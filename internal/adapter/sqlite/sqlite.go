package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
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
	first_seen_at     INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS failed_urls (
	url                    TEXT PRIMARY KEY,
	identity               TEXT NOT NULL DEFAULT '',
	error_kind             TEXT NOT NULL,
	failure_reason         TEXT NOT NULL,
	retry_count            INTEGER NOT NULL DEFAULT 1,
	first_failed_at        INTEGER NOT NULL,
	last_attempt_timestamp INTEGER NOT NULL
);
`

// Open opens the database file at path, applies the connection pragmas and
// creates the schema. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialized and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
