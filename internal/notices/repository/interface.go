package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the notices service depends on.
type Store interface {
	Create(ctx context.Context, n Notice) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Notice, error)
	List(ctx context.Context, publishedOnly bool) ([]Notice, error)
	Update(ctx context.Context, n Notice) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

var _ Store = (*Repository)(nil)
