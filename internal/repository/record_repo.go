package repository

import (
	"context"

	"github.com/user/auction-watch/internal/entity"
)

// AnnounceFunc is called by Upsert after the write is staged and before it
// becomes durable.
type AnnounceFunc func(ctx context.Context)

// RecordRepository stores the latest known record per identity.
type RecordRepository interface {
	// Get returns the stored record or ErrNotFound.
	Get(ctx context.Context, identity string) (*entity.PersistedRecord, error)

	// Upsert creates or overwrites the record for rec.Identity, conditioned on
	// the stored fingerprint still being expectedFingerprint ("" means the
	// identity must not exist yet). If the stored fingerprint already equals
	// rec.Fingerprint and the stored URL equals rec.URL the call is a no-op
	// and announce is not called. A lost
	// condition returns ErrConflict. Any failure leaves the stored record as it
	// was.
	Upsert(ctx context.Context, rec *entity.PersistedRecord, expectedFingerprint string, announce AnnounceFunc) error

	// List returns every stored record ordered by identity.
	List(ctx context.Context) ([]*entity.PersistedRecord, error)

	Ping(ctx context.Context) error
}

// StoredVersion is the part of a stored record that the Upsert precondition
// reads.
type StoredVersion struct {
	Fingerprint string
	URL         string
}

// CheckUpsert applies the Upsert precondition. current is the stored version,
// nil when nothing is stored. skip is true when the write would not change
// anything.
func CheckUpsert(current *StoredVersion, expected string, next *entity.PersistedRecord) (skip bool, err error) {
	switch {
	case current == nil && expected != "":
		return false, ErrConflict
	case current == nil:
		return false, nil
	case current.Fingerprint == next.Fingerprint && current.URL == next.URL:
		return true, nil
	case current.Fingerprint != expected:
		return false, ErrConflict
	}
	return false, nil
}
