package memory

import (
	"context"
	"sync"

	"github.com/user/auction-watch/internal/repository"
)

// OutboxRepoImpl is an in-process OutboxRepository.
type OutboxRepoImpl struct {
	mu       sync.Mutex
	messages []string
}

func NewOutboxRepo() *OutboxRepoImpl { return &OutboxRepoImpl{} }

func (r *OutboxRepoImpl) Push(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *OutboxRepoImpl) Pop(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return "", repository.ErrNotFound
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *OutboxRepoImpl) Requeue(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append([]string{message}, r.messages...)
	return nil
}

func (r *OutboxRepoImpl) Size(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.messages)), nil
}
