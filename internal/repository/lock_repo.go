package repository

import (
	"context"
	"time"
)

// ReleaseFunc gives a held lock back.
type ReleaseFunc func(ctx context.Context) error

// LockRepository guards against overlapping passes.
type LockRepository interface {
	// Acquire takes the pass lock for at most ttl. It returns ErrLockHeld if
	// another holder has it.
	Acquire(ctx context.Context, ttl time.Duration) (ReleaseFunc, error)
}
