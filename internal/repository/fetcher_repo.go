package repository

import (
	"context"

	"github.com/user/auction-watch/internal/entity"
)

// FetcherRepository retrieves a listing page.
type FetcherRepository interface {
	// Fetch returns the page at url. Transport failures and non-2xx/3xx
	// statuses are returned as errors.
	Fetch(ctx context.Context, url string) (*entity.Document, error)
}

// ExtractorRepository turns a fetched page into label/value pairs.
type ExtractorRepository interface {
	Extract(doc *entity.Document) (*entity.RawRecord, error)
}
