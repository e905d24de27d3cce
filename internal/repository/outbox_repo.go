package repository

import "context"

// OutboxRepository is a FIFO queue of notifications that could not be delivered.
type OutboxRepository interface {
	// Push adds a message at the back of the queue.
	Push(ctx context.Context, message string) error
	// Pop removes and returns the oldest message, or ErrNotFound when empty.
	Pop(ctx context.Context) (string, error)
	// Requeue puts a popped message back at the front of the queue.
	Requeue(ctx context.Context, message string) error
	// Size returns the current number of queued messages.
	Size(ctx context.Context) (int64, error)
}
