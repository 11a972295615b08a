package transport

import (
	"time"

	"member_portal_backend/internal/consultations/repository"
	"member_portal_backend/internal/consultations/service"

	"github.com/google/uuid"
)

// QuestionPayload is an intake question as sent by the admin form.
type QuestionPayload struct {
	QuestionType string `json:"question_type" validate:"required,oneof=text textarea select checkbox radio"`
	Label        string `json:"label" validate:"required,max=255"`
	Required     bool   `json:"required"`
}

// CreateConsultationRequest carries the admin create form.
type CreateConsultationRequest struct {
	Title       string            `json:"title" validate:"required,max=255"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Schedules   []string          `json:"schedules" validate:"dive,required"`
	Questions   []QuestionPayload `json:"questions" validate:"dive"`
}

// CreateInput converts the request to the service input.
func (r CreateConsultationRequest) CreateInput() service.CreateInput {
	return service.CreateInput{
		Title:        r.Title,
		Description:  r.Description,
		ScheduleKeys: r.Schedules,
		Questions:    toQuestionInputs(r.Questions),
	}
}

// UpdateConsultationRequest carries the full desired state for an update.
// Schedules and questions replace the persisted children via reconciliation.
type UpdateConsultationRequest struct {
	Title       string            `json:"title" validate:"required,max=255"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Status      string            `json:"status" validate:"required,oneof=open closed"`
	Schedules   []string          `json:"schedules" validate:"dive,required"`
	Questions   []QuestionPayload `json:"questions" validate:"dive"`
}

// UpdateInput converts the request to the service input.
func (r UpdateConsultationRequest) UpdateInput() service.UpdateInput {
	return service.UpdateInput{
		Title:        r.Title,
		Description:  r.Description,
		Status:       r.Status,
		ScheduleKeys: r.Schedules,
		Questions:    toQuestionInputs(r.Questions),
	}
}

func toQuestionInputs(payloads []QuestionPayload) []service.QuestionInput {
	out := make([]service.QuestionInput, len(payloads))
	for i, p := range payloads {
		out[i] = service.QuestionInput{QuestionType: p.QuestionType, Label: p.Label, Required: p.Required}
	}
	return out
}

// BookRequest selects the schedule slot to reserve.
type BookRequest struct {
	ScheduleID uuid.UUID `json:"schedule_id" validate:"required"`
}

// ScheduleResponse is a bookable slot.
type ScheduleResponse struct {
	ID       uuid.UUID `json:"id"`
	StartsAt time.Time `json:"starts_at"`
}

// QuestionResponse is an intake question.
type QuestionResponse struct {
	ID           uuid.UUID `json:"id"`
	QuestionType string    `json:"question_type"`
	Label        string    `json:"label"`
	Required     bool      `json:"required"`
}

// ConsultationResponse is the API representation of a consultation.
type ConsultationResponse struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	Schedules   []ScheduleResponse `json:"schedules,omitempty"`
	Questions   []QuestionResponse `json:"questions,omitempty"`
}

// ToConsultationResponse maps the database models to the API shape.
func ToConsultationResponse(cons *repository.Consultation, schedules []repository.Schedule, questions []repository.Question) ConsultationResponse {
	resp := ConsultationResponse{
		ID:          cons.ID,
		Title:       cons.Title,
		Description: cons.Description,
		Status:      cons.Status,
		CreatedAt:   cons.CreatedAt,
	}
	for _, s := range schedules {
		resp.Schedules = append(resp.Schedules, ScheduleResponse{ID: s.ID, StartsAt: s.StartsAt})
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, QuestionResponse{
			ID: q.ID, QuestionType: q.QuestionType, Label: q.Label, Required: q.Required,
		})
	}
	return resp
}
