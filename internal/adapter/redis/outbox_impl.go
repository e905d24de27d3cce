package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/user/auction-watch/internal/repository"
)

const outboxKey = "auction-watch:outbox"

// OutboxRepoImpl provides a concrete implementation for the OutboxRepository interface using Redis Lists.
type OutboxRepoImpl struct {
	client *redis.Client
	key    string
}

// NewOutboxRepo creates a new instance of OutboxRepoImpl.
func NewOutboxRepo(client *redis.Client) *OutboxRepoImpl {
	return &OutboxRepoImpl{client: client, key: outboxKey}
}

// Push adds a message to the left side of the Redis list (acting as a queue).
func (r *OutboxRepoImpl) Push(ctx context.Context, message string) error {
	return r.client.LPush(ctx, r.key, message).Err()
}

// Pop removes and returns the oldest message from the right side of the list.
func (r *OutboxRepoImpl) Pop(ctx context.Context) (string, error) {
	msg, err := r.client.RPop(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	return msg, err
}

// Requeue puts a message back on the right side so it is popped next.
func (r *OutboxRepoImpl) Requeue(ctx context.Context, message string) error {
	return r.client.RPush(ctx, r.key, message).Err()
}

// Size returns the current number of messages in the outbox.
func (r *OutboxRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
