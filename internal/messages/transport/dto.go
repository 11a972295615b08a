package transport

import (
	"time"

	"member_portal_backend/internal/messages/repository"

	"github.com/google/uuid"
)

// StartThreadRequest carries the member's new conversation form.
type StartThreadRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required,max=10000"`
}

// PostMessageRequest carries a follow-up post.
type PostMessageRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// ThreadResponse is the API representation of a thread.
type ThreadResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Subject     string    `json:"subject"`
	UnreadCount int       `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToThreadResponse maps the database model to the API shape.
func ToThreadResponse(t *repository.Thread) ThreadResponse {
	return ThreadResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Subject:     t.Subject,
		UnreadCount: t.UnreadCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// MessageResponse is a single post.
type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	SenderRole string     `json:"sender_role"`
	Body       string     `json:"body"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ThreadDetailResponse bundles a thread with its messages.
type ThreadDetailResponse struct {
	Thread   ThreadResponse    `json:"thread"`
	Messages []MessageResponse `json:"messages"`
}

// ToThreadDetailResponse maps the thread and its messages to the API shape.
func ToThreadDetailResponse(t *repository.Thread, messages []repository.Message) ThreadDetailResponse {
	out := ThreadDetailResponse{Thread: ToThreadResponse(t)}
	for _, m := range messages {
		out.Messages = append(out.Messages, MessageResponse{
			ID:         m.ID,
			SenderRole: m.SenderRole,
			Body:       m.Body,
			ReadAt:     m.ReadAt,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out
}
