package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract the consultations service depends on.
// Implemented by Repository; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, title string, description *string) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	List(ctx context.Context, openOnly bool) ([]Consultation, error)
	Update(ctx context.Context, id uuid.UUID, title string, description *string, status string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	ListSchedules(ctx context.Context, consultationID uuid.UUID) ([]Schedule, error)
	InsertSchedules(ctx context.Context, consultationID uuid.UUID, startTimes []time.Time) error
	SoftDeleteSchedules(ctx context.Context, ids []uuid.UUID) error

	ListQuestions(ctx context.Context, consultationID uuid.UUID) ([]Question, error)
	InsertQuestions(ctx context.Context, consultationID uuid.UUID, questions []Question) error
	SoftDeleteQuestions(ctx context.Context, ids []uuid.UUID) error

	GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*Schedule, error)
	CreateBooking(ctx context.Context, consultationID, scheduleID, userID uuid.UUID) (uuid.UUID, error)
	CancelBooking(ctx context.Context, consultationID, userID uuid.UUID) error
}

var _ Store = (*Repository)(nil)
