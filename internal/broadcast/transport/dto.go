package transport

import (
	"time"

	"member_portal_backend/internal/broadcast/repository"
	"member_portal_backend/internal/broadcast/service"

	"github.com/google/uuid"
)

// CreateBroadcastRequest carries the admin's broadcast form. An empty
// group_ids list targets every active member.
type CreateBroadcastRequest struct {
	Subject  string      `json:"subject" validate:"required,max=255"`
	Body     string      `json:"body" validate:"required,max=20000"`
	GroupIDs []uuid.UUID `json:"group_ids"`
}

// Input converts the request to the service input.
func (r CreateBroadcastRequest) Input() service.Input {
	return service.Input{Subject: r.Subject, Body: r.Body, GroupIDs: r.GroupIDs}
}

// BroadcastResponse is the API representation of a broadcast.
type BroadcastResponse struct {
	ID        uuid.UUID  `json:"id"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// ToBroadcastResponse maps the database model to the API shape.
func ToBroadcastResponse(b *repository.Broadcast) BroadcastResponse {
	return BroadcastResponse{
		ID:        b.ID,
		Subject:   b.Subject,
		Body:      b.Body,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		SentAt:    b.SentAt,
	}
}

// DeliveryResponse is a per-recipient delivery outcome.
type DeliveryResponse struct {
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Status string     `json:"status"`
	Error  *string    `json:"error,omitempty"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// BroadcastDetailResponse bundles a broadcast with its deliveries.
type BroadcastDetailResponse struct {
	Broadcast  BroadcastResponse  `json:"broadcast"`
	Deliveries []DeliveryResponse `json:"deliveries"`
}

// ToBroadcastDetailResponse maps the broadcast and its deliveries to the
// API shape.
func ToBroadcastDetailResponse(b *repository.Broadcast, deliveries []repository.Delivery) BroadcastDetailResponse {
	out := BroadcastDetailResponse{Broadcast: ToBroadcastResponse(b)}
	for _, d := range deliveries {
		out.Deliveries = append(out.Deliveries, DeliveryResponse{
			UserID: d.UserID,
			Email:  d.Email,
			Status: d.Status,
			Error:  d.Error,
			SentAt: d.SentAt,
		})
	}
	return out
}
