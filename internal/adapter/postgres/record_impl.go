package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/repository"
)

// RecordRepoImpl provides a concrete implementation for the RecordRepository interface using PostgreSQL.
type RecordRepoImpl struct {
	db *pgxpool.Pool
}

// NewRecordRepo creates a new instance of RecordRepoImpl.
func NewRecordRepo(db *pgxpool.Pool) *RecordRepoImpl {
	return &RecordRepoImpl{db: db}
}

const selectRecord = `
	SELECT identity, url, fingerprint, serialized_record, top_bid, auction_status, participant_count, first_seen_at, updated_at
	FROM auction_records`

// Get retrieves the record stored for identity.
func (r *RecordRepoImpl) Get(ctx context.Context, identity string) (*entity.PersistedRecord, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, selectRecord+` WHERE identity = $1`, identity))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

// Upsert stores rec inside a transaction. The stored row is locked while the
// fingerprint precondition is checked, and announce runs after the row is
// written but before the commit.
func (r *RecordRepoImpl) Upsert(ctx context.Context, rec *entity.PersistedRecord, expected string, announce repository.AnnounceFunc) error {
	serialized := rec.Record.Canonical()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current := &repository.StoredVersion{}
	err = tx.QueryRow(ctx, `SELECT fingerprint, url FROM auction_records WHERE identity = $1 FOR UPDATE`, rec.Identity).Scan(&current.Fingerprint, &current.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		current = nil
	} else if err != nil {
		return fmt.Errorf("read stored fingerprint: %w", err)
	}
	skip, err := repository.CheckUpsert(current, expected, rec)
	if skip || err != nil {
		return err
	}

	query := `
		INSERT INTO auction_records (identity, url, fingerprint, serialized_record, top_bid, auction_status, participant_count, first_seen_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (identity) DO UPDATE SET
			url = EXCLUDED.url,
			fingerprint = EXCLUDED.fingerprint,
			serialized_record = EXCLUDED.serialized_record,
			top_bid = EXCLUDED.top_bid,
			auction_status = EXCLUDED.auction_status,
			participant_count = EXCLUDED.participant_count,
			updated_at = EXCLUDED.updated_at
		WHERE auction_records.fingerprint = $9;
	`
	tag, err := tx.Exec(ctx, query,
		rec.Identity,
		rec.URL,
		rec.Fingerprint,
		string(serialized),
		nullable(rec.Projected.TopBid),
		nullable(rec.Projected.AuctionStatus),
		rec.Projected.ParticipantCount,
		rec.UpdatedAt,
		expected,
	)
	if err != nil {
		return err
	}
	// A concurrent insert of the same identity slipped in after the read.
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}

	if announce != nil {
		announce(ctx)
	}
	return tx.Commit(ctx)
}

// List returns every stored record ordered by identity.
func (r *RecordRepoImpl) List(ctx context.Context) ([]*entity.PersistedRecord, error) {
	rows, err := r.db.Query(ctx, selectRecord+` ORDER BY identity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*entity.PersistedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *RecordRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanRecord(row pgx.Row) (*entity.PersistedRecord, error) {
	var (
		rec        entity.PersistedRecord
		serialized string
		topBid     *string
		status     *string
	)
	err := row.Scan(
		&rec.Identity,
		&rec.URL,
		&rec.Fingerprint,
		&serialized,
		&topBid,
		&status,
		&rec.Projected.ParticipantCount,
		&rec.FirstSeenAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(serialized), &rec.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", rec.Identity, err)
	}
	if topBid != nil {
		rec.Projected.TopBid = *topBid
	}
	if status != nil {
		rec.Projected.AuctionStatus = *status
	}
	return &rec, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
