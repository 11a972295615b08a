package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the broadcast service and delivery
// worker depend on.
type Store interface {
	Create(ctx context.Context, subject, body string, createdBy *uuid.UUID, groupIDs []uuid.UUID, recipients []Recipient) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Broadcast, error)
	List(ctx context.Context) ([]Broadcast, error)
	ListDeliveries(ctx context.Context, broadcastID uuid.UUID) ([]Delivery, error)
	ListPendingDeliveries(ctx context.Context, broadcastID uuid.UUID) ([]Delivery, error)
	MarkDeliverySent(ctx context.Context, deliveryID uuid.UUID) error
	MarkDeliveryFailed(ctx context.Context, deliveryID uuid.UUID, sendErr string) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

var _ Store = (*Repository)(nil)
