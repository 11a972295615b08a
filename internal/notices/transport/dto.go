package transport

import (
	"time"

	"member_portal_backend/internal/notices/repository"
	"member_portal_backend/internal/notices/service"

	"github.com/google/uuid"
)

// NoticeRequest carries the admin create/update form.
type NoticeRequest struct {
	Title     string `json:"title" validate:"required,max=255"`
	Body      string `json:"body" validate:"required,max=20000"`
	Pinned    bool   `json:"pinned"`
	Published bool   `json:"published"`
}

// Input converts the request to the service input.
func (r NoticeRequest) Input() service.Input {
	return service.Input{Title: r.Title, Body: r.Body, Pinned: r.Pinned, Published: r.Published}
}

// NoticeResponse is the API representation of a notice.
type NoticeResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Pinned      bool       `json:"pinned"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToNoticeResponse maps the database model to the API shape.
func ToNoticeResponse(n *repository.Notice) NoticeResponse {
	return NoticeResponse{
		ID:          n.ID,
		Title:       n.Title,
		Body:        n.Body,
		Pinned:      n.Pinned,
		Published:   n.Published,
		PublishedAt: n.PublishedAt,
		CreatedAt:   n.CreatedAt,
	}
}
