package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the events service depends on.
// Implemented by Repository; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, e Event) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	ListVisible(ctx context.Context, groupIDs []uuid.UUID) ([]Event, error)
	Update(ctx context.Context, e Event) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	ListQuestions(ctx context.Context, eventID uuid.UUID) ([]Question, error)
	InsertQuestions(ctx context.Context, eventID uuid.UUID, questions []Question) error
	SoftDeleteQuestions(ctx context.Context, ids []uuid.UUID) error

	ListFiles(ctx context.Context, eventID uuid.UUID) ([]File, error)
	InsertFiles(ctx context.Context, eventID uuid.UUID, files []File) error
	SoftDeleteFiles(ctx context.Context, ids []uuid.UUID) error
	GetFile(ctx context.Context, fileID uuid.UUID) (*File, error)

	ListGroupLinks(ctx context.Context, eventID uuid.UUID) ([]GroupLink, error)
	InsertGroupLinks(ctx context.Context, eventID uuid.UUID, groupIDs []uuid.UUID) error
	SoftDeleteGroupLinks(ctx context.Context, ids []uuid.UUID) error

	CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
	CreateRegistration(ctx context.Context, eventID, userID uuid.UUID, answers []byte) (uuid.UUID, error)
	GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*Registration, error)
	CancelRegistration(ctx context.Context, eventID, userID uuid.UUID) error
	ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]Registration, error)
}

var _ Store = (*Repository)(nil)
