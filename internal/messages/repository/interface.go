package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the messages service depends on.
type Store interface {
	CreateThread(ctx context.Context, userID uuid.UUID, subject string) (uuid.UUID, error)
	GetThread(ctx context.Context, id uuid.UUID) (*Thread, error)
	ListThreadsByUser(ctx context.Context, userID uuid.UUID) ([]Thread, error)
	ListAllThreads(ctx context.Context) ([]Thread, error)
	InsertMessage(ctx context.Context, threadID uuid.UUID, senderRole string, senderID *uuid.UUID, body string) (uuid.UUID, error)
	ListMessages(ctx context.Context, threadID uuid.UUID) ([]Message, error)
	MarkRead(ctx context.Context, threadID uuid.UUID, senderRole string) error
}

var _ Store = (*Repository)(nil)
