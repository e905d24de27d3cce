package sqlite

import (
	"context"
	"database/sql"

	"github.com/user/auction-watch/internal/entity"
)

// FailureRepoImpl implements FailureRepository on an embedded SQLite database.
type FailureRepoImpl struct {
	db *sql.DB
}

// NewFailureRepo creates a new instance of FailureRepoImpl.
func NewFailureRepo(db *sql.DB) *FailureRepoImpl {
	return &FailureRepoImpl{db: db}
}

// SaveOrUpdate creates or updates the failure for f.URL, incrementing
// retry_count on conflict.
func (r *FailureRepoImpl) SaveOrUpdate(ctx context.Context, f *entity.Failure) error {
	at := toMillis(f.LastAttemptAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO failed_urls (url, identity, error_kind, failure_reason, retry_count, first_failed_at, last_attempt_timestamp)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			identity = excluded.identity,
			error_kind = excluded.error_kind,
			failure_reason = excluded.failure_reason,
			last_attempt_timestamp = excluded.last_attempt_timestamp,
			retry_count = failed_urls.retry_count + 1`,
		f.URL, f.Identity, string(f.Kind), f.Reason, at, at,
	)
	return err
}

func (r *FailureRepoImpl) List(ctx context.Context, limit int) ([]*entity.Failure, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT url, identity, error_kind, failure_reason, retry_count, first_failed_at, last_attempt_timestamp
		FROM failed_urls
		ORDER BY last_attempt_timestamp DESC, url ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*entity.Failure
	for rows.Next() {
		var (
			f             entity.Failure
			kind          string
			first, latest int64
		)
		if err := rows.Scan(&f.URL, &f.Identity, &kind, &f.Reason, &f.Attempts, &first, &latest); err != nil {
			return nil, err
		}
		f.Kind = entity.ErrorKind(kind)
		f.FirstFailedAt = fromMillis(first)
		f.LastAttemptAt = fromMillis(latest)
		failures = append(failures, &f)
	}
	return failures, rows.Err()
}

func (r *FailureRepoImpl) Delete(ctx context.Context, url string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM failed_urls WHERE url = ?`, url)
	return err
}
