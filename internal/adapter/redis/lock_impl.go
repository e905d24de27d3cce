package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/auction-watch/internal/repository"
	"github.com/user/auction-watch/pkg/utils"
)

const passLockKey = "auction-watch:pass-lock"

// releaseScript deletes the lock only while it still carries our token, so an
// expired lock taken over by another pass is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockRepoImpl provides a concrete implementation for the LockRepository interface using Redis.
type LockRepoImpl struct {
	client *redis.Client
	key    string
}

// NewLockRepo creates a new instance of LockRepoImpl.
func NewLockRepo(client *redis.Client) *LockRepoImpl {
	return &LockRepoImpl{client: client, key: passLockKey}
}

// Acquire sets the lock key with a random token if it is not already set.
// SET NX PX is atomic, so exactly one pass can win.
func (r *LockRepoImpl) Acquire(ctx context.Context, ttl time.Duration) (repository.ReleaseFunc, error) {
	token, err := utils.RandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.client, []string{r.key}, token).Err()
	}, nil
}
