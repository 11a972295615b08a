package transport

import (
	"encoding/json"
	"time"

	"member_portal_backend/internal/events/repository"
	"member_portal_backend/internal/events/service"

	"github.com/google/uuid"
)

// QuestionPayload is a registration question as sent by the admin form.
type QuestionPayload struct {
	QuestionType string `json:"question_type" validate:"required,oneof=text textarea select checkbox radio"`
	Label        string `json:"label" validate:"required,max=255"`
	Required     bool   `json:"required"`
}

// FilePayload references an attachment already uploaded to object storage.
type FilePayload struct {
	FileKey     string  `json:"file_key" validate:"required,max=512"`
	FileName    string  `json:"file_name" validate:"required,max=255"`
	ContentType *string `json:"content_type" validate:"omitempty,max=127"`
}

// EventRequest carries the full desired state for an event. On update the
// questions, files, and groups lists replace the persisted children via
// reconciliation.
type EventRequest struct {
	Title     string            `json:"title" validate:"required,max=255"`
	Body      *string           `json:"body" validate:"omitempty,max=20000"`
	Location  *string           `json:"location" validate:"omitempty,max=255"`
	StartsAt  *time.Time        `json:"starts_at"`
	EndsAt    *time.Time        `json:"ends_at"`
	Capacity  *int              `json:"capacity" validate:"omitempty,min=1"`
	Published bool              `json:"published"`
	Questions []QuestionPayload `json:"questions" validate:"dive"`
	Files     []FilePayload     `json:"files" validate:"dive"`
	GroupIDs  []uuid.UUID       `json:"group_ids"`
}

// Input converts the request to the service input.
func (r EventRequest) Input() service.EventInput {
	questions := make([]service.QuestionInput, len(r.Questions))
	for i, q := range r.Questions {
		questions[i] = service.QuestionInput{QuestionType: q.QuestionType, Label: q.Label, Required: q.Required}
	}
	files := make([]service.FileInput, len(r.Files))
	for i, f := range r.Files {
		files[i] = service.FileInput{FileKey: f.FileKey, FileName: f.FileName, ContentType: f.ContentType}
	}
	return service.EventInput{
		Title:     r.Title,
		Body:      r.Body,
		Location:  r.Location,
		StartsAt:  r.StartsAt,
		EndsAt:    r.EndsAt,
		Capacity:  r.Capacity,
		Published: r.Published,
		Questions: questions,
		Files:     files,
		GroupIDs:  r.GroupIDs,
	}
}

// RegisterRequest carries the member's registration answers.
type RegisterRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// UploadURLRequest asks for a presigned attachment upload URL.
type UploadURLRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=127"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,min=1"`
}

// QuestionResponse is a registration question.
type QuestionResponse struct {
	ID           uuid.UUID `json:"id"`
	QuestionType string    `json:"question_type"`
	Label        string    `json:"label"`
	Required     bool      `json:"required"`
}

// FileResponse is an attachment.
type FileResponse struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType *string   `json:"content_type,omitempty"`
}

// EventResponse is the API representation of an event.
type EventResponse struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Body      *string            `json:"body,omitempty"`
	Location  *string            `json:"location,omitempty"`
	StartsAt  *time.Time         `json:"starts_at,omitempty"`
	EndsAt    *time.Time         `json:"ends_at,omitempty"`
	Capacity  *int               `json:"capacity,omitempty"`
	Published bool               `json:"published"`
	CreatedAt time.Time          `json:"created_at"`
	Questions []QuestionResponse `json:"questions,omitempty"`
	Files     []FileResponse     `json:"files,omitempty"`
	GroupIDs  []uuid.UUID        `json:"group_ids,omitempty"`
}

// ToEventResponse maps the database model to the API shape.
func ToEventResponse(e *repository.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		Title:     e.Title,
		Body:      e.Body,
		Location:  e.Location,
		StartsAt:  e.StartsAt,
		EndsAt:    e.EndsAt,
		Capacity:  e.Capacity,
		Published: e.Published,
		CreatedAt: e.CreatedAt,
	}
}

// ToDetailResponse maps an event with its children to the API shape.
func ToDetailResponse(d *service.Detail) EventResponse {
	resp := ToEventResponse(d.Event)
	for _, q := range d.Questions {
		resp.Questions = append(resp.Questions, QuestionResponse{
			ID: q.ID, QuestionType: q.QuestionType, Label: q.Label, Required: q.Required,
		})
	}
	for _, f := range d.Files {
		resp.Files = append(resp.Files, FileResponse{ID: f.ID, FileName: f.FileName, ContentType: f.ContentType})
	}
	resp.GroupIDs = d.GroupIDs
	return resp
}

// RegistrationResponse is an attendee entry for the admin list.
type RegistrationResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Answers   json.RawMessage `json:"answers"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToRegistrationResponse maps the database model to the API shape.
func ToRegistrationResponse(r repository.Registration) RegistrationResponse {
	return RegistrationResponse{ID: r.ID, UserID: r.UserID, Answers: r.Answers, CreatedAt: r.CreatedAt}
}
