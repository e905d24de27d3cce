package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/auction-watch/internal/entity"
)

// FailureRepoImpl provides a concrete implementation for the FailureRepository interface using PostgreSQL.
type FailureRepoImpl struct {
	db *pgxpool.Pool
}

// NewFailureRepo creates a new instance of FailureRepoImpl.
func NewFailureRepo(db *pgxpool.Pool) *FailureRepoImpl {
	return &FailureRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed URL.
// It increments the retry_count on conflict.
func (r *FailureRepoImpl) SaveOrUpdate(ctx context.Context, f *entity.Failure) error {
	query := `
		INSERT INTO failed_urls (url, identity, error_kind, failure_reason, retry_count, first_failed_at, last_attempt_timestamp)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		ON CONFLICT (url) DO UPDATE SET
			identity = EXCLUDED.identity,
			error_kind = EXCLUDED.error_kind,
			failure_reason = EXCLUDED.failure_reason,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			retry_count = failed_urls.retry_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		f.URL,
		f.Identity,
		string(f.Kind),
		f.Reason,
		f.LastAttemptAt,
	)
	return err
}

// List retrieves the most recently attempted failures first.
func (r *FailureRepoImpl) List(ctx context.Context, limit int) ([]*entity.Failure, error) {
	query := `
		SELECT url, identity, error_kind, failure_reason, retry_count, first_failed_at, last_attempt_timestamp
		FROM failed_urls
		ORDER BY last_attempt_timestamp DESC, url ASC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*entity.Failure
	for rows.Next() {
		var (
			f    entity.Failure
			kind string
		)
		if err := rows.Scan(
			&f.URL,
			&f.Identity,
			&kind,
			&f.Reason,
			&f.Attempts,
			&f.FirstFailedAt,
			&f.LastAttemptAt,
		); err != nil {
			return nil, err
		}
		f.Kind = entity.ErrorKind(kind)
		failures = append(failures, &f)
	}

	return failures, rows.Err()
}

// Delete removes a failed URL record, typically after a successful pass.
func (r *FailureRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM failed_urls WHERE url = $1;`
	_, err := r.db.Exec(ctx, query, url)
	return err
}
