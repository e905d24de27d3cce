package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/auction-watch/internal/repository"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestOutboxRepo(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()
	ob := NewOutboxRepo(client)

	_, err := ob.Pop(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, ob.Push(ctx, "first"))
	require.NoError(t, ob.Push(ctx, "second"))

	msg, err := ob.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", msg)

	require.NoError(t, ob.Requeue(ctx, msg))
	size, err := ob.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, size)

	msg, err = ob.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", msg)
	msg, err = ob.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", msg)
}

func TestLockRepo(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	lock := NewLockRepo(client)

	release, err := lock.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(passLockKey))

	_, err = lock.Acquire(ctx, time.Minute)
	assert.ErrorIs(t, err, repository.ErrLockHeld)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(passLockKey))

	release, err = lock.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestLockRepo_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	lock := NewLockRepo(client)

	stale, err := lock.Acquire(ctx, time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = lock.Acquire(ctx, time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists(passLockKey), "new holder's lock must survive")
}
