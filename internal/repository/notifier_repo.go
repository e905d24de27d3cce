package repository

import "context"

// NotifierRepository delivers a human-readable message.
type NotifierRepository interface {
	Notify(ctx context.Context, message string) error
}
