package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/repository"
)

// RecordRepoImpl implements RecordRepository on an embedded SQLite database.
type RecordRepoImpl struct {
	db *sql.DB
}

// NewRecordRepo creates a new instance of RecordRepoImpl.
func NewRecordRepo(db *sql.DB) *RecordRepoImpl {
	return &RecordRepoImpl{db: db}
}

const selectRecord = `
	SELECT identity, url, fingerprint, serialized_record, top_bid, auction_status, participant_count, first_seen_at, updated_at
	FROM auction_records`

func (r *RecordRepoImpl) Get(ctx context.Context, identity string) (*entity.PersistedRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectRecord+` WHERE identity = ?`, identity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

// Upsert checks the fingerprint precondition and writes rec in one
// transaction; announce runs between the write and the commit.
func (r *RecordRepoImpl) Upsert(ctx context.Context, rec *entity.PersistedRecord, expected string, announce repository.AnnounceFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current := &repository.StoredVersion{}
	err = tx.QueryRowContext(ctx, `SELECT fingerprint, url FROM auction_records WHERE identity = ?`, rec.Identity).Scan(&current.Fingerprint, &current.URL)
	if errors.Is(err, sql.ErrNoRows) {
		current = nil
	} else if err != nil {
		return fmt.Errorf("read stored fingerprint: %w", err)
	}
	skip, err := repository.CheckUpsert(current, expected, rec)
	if skip || err != nil {
		return err
	}

	var count sql.NullInt64
	if rec.Projected.ParticipantCount != nil {
		count = sql.NullInt64{Int64: int64(*rec.Projected.ParticipantCount), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO auction_records (identity, url, fingerprint, serialized_record, top_bid, auction_status, participant_count, first_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET
			url = excluded.url,
			fingerprint = excluded.fingerprint,
			serialized_record = excluded.serialized_record,
			top_bid = excluded.top_bid,
			auction_status = excluded.auction_status,
			participant_count = excluded.participant_count,
			updated_at = excluded.updated_at`,
		rec.Identity,
		rec.URL,
		rec.Fingerprint,
		string(rec.Record.Canonical()),
		nullString(rec.Projected.TopBid),
		nullString(rec.Projected.AuctionStatus),
		count,
		toMillis(rec.UpdatedAt),
		toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if announce != nil {
		announce(ctx)
	}
	return tx.Commit()
}

func (r *RecordRepoImpl) List(ctx context.Context) ([]*entity.PersistedRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRecord+` ORDER BY identity`)
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
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*entity.PersistedRecord, error) {
	var (
		rec                entity.PersistedRecord
		serialized         string
		topBid, status     sql.NullString
		count              sql.NullInt64
		firstSeen, updated int64
	)
	if err := row.Scan(&rec.Identity, &rec.URL, &rec.Fingerprint, &serialized, &topBid, &status, &count, &firstSeen, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(serialized), &rec.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", rec.Identity, err)
	}
	rec.Projected.TopBid = topBid.String
	rec.Projected.AuctionStatus = status.String
	if count.Valid {
		n := int(count.Int64)
		rec.Projected.ParticipantCount = &n
	}
	rec.FirstSeenAt = fromMillis(firstSeen)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
