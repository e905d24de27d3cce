package repository

import (
	"context"

	"github.com/user/auction-watch/internal/entity"
)

// FailureRepository keeps the latest failure per URL.
type FailureRepository interface {
	// SaveOrUpdate creates or updates the failure for f.URL, incrementing its
	// attempt counter.
	SaveOrUpdate(ctx context.Context, f *entity.Failure) error
	// List returns the most recent failures first.
	List(ctx context.Context, limit int) ([]*entity.Failure, error)
	// Delete removes the failure for url, typically after a successful pass.
	Delete(ctx context.Context, url string) error
}
