// Package service implements consultation management: parent CRUD with
// diff-based reconciliation of schedule slots and intake questions, and
// member slot booking.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"member_portal_backend/internal/consultations/repository"
	"member_portal_backend/internal/reconcile"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// QuestionInput is a desired intake question supplied by the admin form.
type QuestionInput struct {
	QuestionType string
	Label        string
	Required     bool
}

// key builds the composite comparison key for question reconciliation.
func (q QuestionInput) key() string {
	return fmt.Sprintf("%s|%s|%t", q.QuestionType, q.Label, q.Required)
}

func questionKey(q repository.Question) string {
	return fmt.Sprintf("%s|%s|%t", q.QuestionType, q.Label, q.Required)
}

// CreateInput carries the full desired state for a new consultation.
type CreateInput struct {
	Title        string
	Description  *string
	ScheduleKeys []string
	Questions    []QuestionInput
}

// UpdateInput carries the full desired state for an existing consultation.
// Schedules and questions are reconciled against the persisted children.
type UpdateInput struct {
	Title        string
	Description  *string
	Status       string
	ScheduleKeys []string
	Questions    []QuestionInput
}

// Service coordinates consultation state.
type Service struct {
	store repository.Store
	log   *logger.Logger
}

// New creates a consultations service.
func New(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Create inserts the parent row and its initial children.
func (s *Service) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	startTimes, err := parseScheduleKeys(in.ScheduleKeys)
	if err != nil {
		return uuid.UUID{}, err
	}

	id, err := s.store.Create(ctx, in.Title, in.Description)
	if err != nil {
		return uuid.UUID{}, apperr.Storage("consultations.create", err)
	}

	if err := s.store.InsertSchedules(ctx, id, startTimes); err != nil {
		return uuid.UUID{}, apperr.Storage("consultations.insert_schedules", err)
	}

	questions := make([]repository.Question, len(in.Questions))
	for i, q := range in.Questions {
		questions[i] = repository.Question{QuestionType: q.QuestionType, Label: q.Label, Required: q.Required}
	}
	if err := s.store.InsertQuestions(ctx, id, questions); err != nil {
		return uuid.UUID{}, apperr.Storage("consultations.insert_questions", err)
	}

	return id, nil
}

// Update modifies the parent row, then reconciles schedules and questions
// against the desired state. Each reconciliation applies removals before
// additions; the first storage failure aborts that step and is surfaced
// without attempting the rest.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) error {
	if err := s.store.Update(ctx, id, in.Title, in.Description, in.Status); err != nil {
		return err
	}

	if err := s.reconcileSchedules(ctx, id, in.ScheduleKeys); err != nil {
		return err
	}

	return s.reconcileQuestions(ctx, id, in.Questions)
}

func (s *Service) reconcileSchedules(ctx context.Context, id uuid.UUID, desiredKeys []string) error {
	current, err := s.store.ListSchedules(ctx, id)
	if err != nil {
		return apperr.Storage("consultations.list_schedules", err)
	}

	children := make([]reconcile.Child, len(current))
	for i, sched := range current {
		children[i] = reconcile.Child{ID: sched.ID, Key: sched.StartsAt.UTC().Format(time.RFC3339Nano)}
	}

	plan := reconcile.Compute(children, desiredKeys, reconcile.NormalizeDatetime)
	if plan.Empty() {
		return nil
	}

	startTimes, err := parseScheduleKeys(plan.ToAdd)
	if err != nil {
		return err
	}

	if err := s.store.SoftDeleteSchedules(ctx, childIDs(plan.ToRemove)); err != nil {
		return apperr.Storage("consultations.schedules.apply_removals", err)
	}
	if err := s.store.InsertSchedules(ctx, id, startTimes); err != nil {
		return apperr.Storage("consultations.schedules.apply_additions", err)
	}
	return nil
}

func (s *Service) reconcileQuestions(ctx context.Context, id uuid.UUID, desired []QuestionInput) error {
	current, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return apperr.Storage("consultations.list_questions", err)
	}

	children := make([]reconcile.Child, len(current))
	for i, q := range current {
		children[i] = reconcile.Child{ID: q.ID, Key: questionKey(q)}
	}

	desiredKeys := make([]string, len(desired))
	byKey := make(map[string]QuestionInput, len(desired))
	for i, q := range desired {
		key := q.key()
		desiredKeys[i] = key
		byKey[key] = q
	}

	plan := reconcile.Compute(children, desiredKeys, reconcile.Identity)
	if plan.Empty() {
		return nil
	}

	if err := s.store.SoftDeleteQuestions(ctx, childIDs(plan.ToRemove)); err != nil {
		return apperr.Storage("consultations.questions.apply_removals", err)
	}

	additions := make([]repository.Question, 0, len(plan.ToAdd))
	for _, key := range plan.ToAdd {
		q := byKey[key]
		additions = append(additions, repository.Question{
			QuestionType: q.QuestionType,
			Label:        q.Label,
			Required:     q.Required,
		})
	}
	if err := s.store.InsertQuestions(ctx, id, additions); err != nil {
		return apperr.Storage("consultations.questions.apply_additions", err)
	}
	return nil
}

// Get returns a consultation with its active schedules and questions.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Consultation, []repository.Schedule, []repository.Question, error) {
	cons, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	schedules, err := s.store.ListSchedules(ctx, id)
	if err != nil {
		return nil, nil, nil, apperr.Storage("consultations.list_schedules", err)
	}
	questions, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return nil, nil, nil, apperr.Storage("consultations.list_questions", err)
	}
	return cons, schedules, questions, nil
}

// List returns consultations; members only see open ones.
func (s *Service) List(ctx context.Context, openOnly bool) ([]repository.Consultation, error) {
	return s.store.List(ctx, openOnly)
}

// Delete soft-deletes the consultation parent.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.SoftDelete(ctx, id)
}

// Book reserves a schedule slot for a member. The slot must belong to the
// consultation and the consultation must be open.
func (s *Service) Book(ctx context.Context, consultationID, scheduleID, userID uuid.UUID) (uuid.UUID, error) {
	cons, err := s.store.GetByID(ctx, consultationID)
	if err != nil {
		return uuid.UUID{}, err
	}
	if cons.Status != "open" {
		return uuid.UUID{}, apperr.Conflict("consultation is not open for booking")
	}

	schedule, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return uuid.UUID{}, err
	}
	if schedule.ConsultationID != consultationID {
		return uuid.UUID{}, apperr.BadRequest("schedule does not belong to consultation")
	}

	return s.store.CreateBooking(ctx, consultationID, scheduleID, userID)
}

// CancelBooking removes the member's booking; absent bookings are a no-op.
func (s *Service) CancelBooking(ctx context.Context, consultationID, userID uuid.UUID) error {
	if err := s.store.CancelBooking(ctx, consultationID, userID); err != nil {
		return apperr.Storage("consultations.cancel_booking", err)
	}
	return nil
}

func parseScheduleKeys(keys []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(keys))
	for _, key := range keys {
		canonical := reconcile.NormalizeDatetime(strings.TrimSpace(key))
		t, err := time.Parse(time.RFC3339Nano, canonical)
		if err != nil {
			return nil, apperr.Validation("invalid schedule datetime: " + key)
		}
		out = append(out, t.UTC())
	}
	return out, nil
}

func childIDs(children []reconcile.Child) []uuid.UUID {
	ids := make([]uuid.UUID, len(children))
	for i, c := range children {
		ids[i] = c.ID
	}
	return ids
}
