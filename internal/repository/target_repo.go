package repository

import "context"

// TargetRepository lists the URLs tracked by a pass.
type TargetRepository interface {
	List(ctx context.Context) ([]string, error)
}
