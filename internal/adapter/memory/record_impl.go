package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/internal/repository"
)

// RecordRepoImpl is an in-process RecordRepository. It is safe for
// concurrent use and keeps nothing across restarts.
type RecordRepoImpl struct {
	mu      sync.Mutex
	records map[string]entity.PersistedRecord
}

// NewRecordRepo creates a new, empty RecordRepoImpl.
func NewRecordRepo() *RecordRepoImpl {
	return &RecordRepoImpl{records: make(map[string]entity.PersistedRecord)}
}

func (r *RecordRepoImpl) Get(_ context.Context, identity string) (*entity.PersistedRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

// Upsert holds the store lock across announce, so the write and the
// announcement are atomic with respect to other writers.
func (r *RecordRepoImpl) Upsert(ctx context.Context, rec *entity.PersistedRecord, expected string, announce repository.AnnounceFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.records[rec.Identity]
	var version *repository.StoredVersion
	if exists {
		version = &repository.StoredVersion{Fingerprint: current.Fingerprint, URL: current.URL}
	}
	skip, err := repository.CheckUpsert(version, expected, rec)
	if skip || err != nil {
		return err
	}

	next := *rec
	if exists {
		next.FirstSeenAt = current.FirstSeenAt
	} else if next.FirstSeenAt.IsZero() {
		next.FirstSeenAt = next.UpdatedAt
	}

	if announce != nil {
		announce(ctx)
	}
	r.records[rec.Identity] = next
	return nil
}

func (r *RecordRepoImpl) List(_ context.Context) ([]*entity.PersistedRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.PersistedRecord, 0, len(r.records))
	for _, rec := range r.records {
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (r *RecordRepoImpl) Ping(context.Context) error { return nil }
