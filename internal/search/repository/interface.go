package repository

import "context"

// Store is the persistence contract the search service depends on.
type Store interface {
	SearchEvents(ctx context.Context, pattern string, limit int) ([]Result, error)
	SearchNotices(ctx context.Context, pattern string, limit int) ([]Result, error)
	SearchConsultations(ctx context.Context, pattern string, limit int) ([]Result, error)
}

var _ Store = (*Repository)(nil)
