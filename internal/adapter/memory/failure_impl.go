package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/user/auction-watch/internal/entity"
)

// FailureRepoImpl is an in-process FailureRepository.
type FailureRepoImpl struct {
	mu       sync.Mutex
	failures map[string]entity.Failure
}

// NewFailureRepo creates a new, empty FailureRepoImpl.
func NewFailureRepo() *FailureRepoImpl {
	return &FailureRepoImpl{failures: make(map[string]entity.Failure)}
}

func (r *FailureRepoImpl) SaveOrUpdate(_ context.Context, f *entity.Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := *f
	if prev, ok := r.failures[f.URL]; ok {
		next.Attempts = prev.Attempts + 1
		next.FirstFailedAt = prev.FirstFailedAt
	} else {
		next.Attempts = 1
		next.FirstFailedAt = f.LastAttemptAt
	}
	r.failures[f.URL] = next
	return nil
}

func (r *FailureRepoImpl) List(_ context.Context, limit int) ([]*entity.Failure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Failure, 0, len(r.failures))
	for _, f := range r.failures {
		f := f
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAttemptAt.Equal(out[j].LastAttemptAt) {
			return out[i].LastAttemptAt.After(out[j].LastAttemptAt)
		}
		return out[i].URL < out[j].URL
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FailureRepoImpl) Delete(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failures, url)
	return nil
}
