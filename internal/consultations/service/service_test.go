package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"member_portal_backend/internal/consultations/repository"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	consultations map[uuid.UUID]*repository.Consultation
	schedules     map[uuid.UUID]*repository.Schedule
	questions     map[uuid.UUID]*repository.Question
	bookings      map[uuid.UUID]*repository.Booking

	deletedSchedules []uuid.UUID
	insertedTimes    []time.Time
	failSoftDeleteSchedules bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		consultations: make(map[uuid.UUID]*repository.Consultation),
		schedules:     make(map[uuid.UUID]*repository.Schedule),
		questions:     make(map[uuid.UUID]*repository.Question),
		bookings:      make(map[uuid.UUID]*repository.Booking),
	}
}

func (f *fakeStore) addConsultation(status string) uuid.UUID {
	id := uuid.New()
	f.consultations[id] = &repository.Consultation{ID: id, Title: "t", Status: status}
	return id
}

func (f *fakeStore) addSchedule(consultationID uuid.UUID, startsAt time.Time) uuid.UUID {
	id := uuid.New()
	f.schedules[id] = &repository.Schedule{ID: id, ConsultationID: consultationID, StartsAt: startsAt}
	return id
}

func (f *fakeStore) Create(_ context.Context, title string, description *string) (uuid.UUID, error) {
	id := uuid.New()
	f.consultations[id] = &repository.Consultation{ID: id, Title: title, Description: description, Status: "open"}
	return id, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Consultation, error) {
	c, ok := f.consultations[id]
	if !ok {
		return nil, apperr.NotFound("consultation not found")
	}
	return c, nil
}

func (f *fakeStore) List(_ context.Context, _ bool) ([]repository.Consultation, error) {
	return nil, nil
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, title string, description *string, status string) error {
	c, ok := f.consultations[id]
	if !ok {
		return apperr.NotFound("consultation not found")
	}
	c.Title, c.Description, c.Status = title, description, status
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(f.consultations, id)
	return nil
}

func (f *fakeStore) ListSchedules(_ context.Context, consultationID uuid.UUID) ([]repository.Schedule, error) {
	var out []repository.Schedule
	for _, s := range f.schedules {
		if s.ConsultationID == consultationID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertSchedules(_ context.Context, consultationID uuid.UUID, startTimes []time.Time) error {
	for _, t := range startTimes {
		f.addSchedule(consultationID, t)
	}
	f.insertedTimes = append(f.insertedTimes, startTimes...)
	return nil
}

func (f *fakeStore) SoftDeleteSchedules(_ context.Context, ids []uuid.UUID) error {
	if f.failSoftDeleteSchedules {
		return errors.New("storage down")
	}
	for _, id := range ids {
		delete(f.schedules, id)
	}
	f.deletedSchedules = append(f.deletedSchedules, ids...)
	return nil
}

func (f *fakeStore) ListQuestions(_ context.Context, consultationID uuid.UUID) ([]repository.Question, error) {
	var out []repository.Question
	for _, q := range f.questions {
		if q.ConsultationID == consultationID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertQuestions(_ context.Context, consultationID uuid.UUID, questions []repository.Question) error {
	for _, q := range questions {
		id := uuid.New()
		f.questions[id] = &repository.Question{
			ID: id, ConsultationID: consultationID,
			QuestionType: q.QuestionType, Label: q.Label, Required: q.Required,
		}
	}
	return nil
}

func (f *fakeStore) SoftDeleteQuestions(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.questions, id)
	}
	return nil
}

func (f *fakeStore) GetSchedule(_ context.Context, scheduleID uuid.UUID) (*repository.Schedule, error) {
	s, ok := f.schedules[scheduleID]
	if !ok {
		return nil, apperr.NotFound("schedule not found")
	}
	return s, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, consultationID, scheduleID, userID uuid.UUID) (uuid.UUID, error) {
	for _, b := range f.bookings {
		if b.ConsultationID == consultationID && b.UserID == userID {
			return uuid.UUID{}, apperr.Conflict("consultation already booked")
		}
	}
	id := uuid.New()
	f.bookings[id] = &repository.Booking{ID: id, ConsultationID: consultationID, ScheduleID: scheduleID, UserID: userID}
	return id, nil
}

func (f *fakeStore) CancelBooking(_ context.Context, consultationID, userID uuid.UUID) error {
	for id, b := range f.bookings {
		if b.ConsultationID == consultationID && b.UserID == userID {
			delete(f.bookings, id)
		}
	}
	return nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed.UTC()
}

func TestUpdateReconcilesSchedules(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("open")
	keepID := store.addSchedule(consID, mustTime(t, "2024-05-01T10:00:00Z"))
	dropID := store.addSchedule(consID, mustTime(t, "2024-05-02T10:00:00Z"))

	err := svc.Update(context.Background(), consID, UpdateInput{
		Title:  "t",
		Status: "open",
		ScheduleKeys: []string{
			"2024-05-01T19:00:00+09:00", // same instant as keepID, different zone
			"2024-05-03T10:00:00Z",      // new slot
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.schedules[keepID]; !ok {
		t.Fatalf("expected unchanged slot kept")
	}
	if _, ok := store.schedules[dropID]; ok {
		t.Fatalf("expected removed slot soft-deleted")
	}
	if len(store.insertedTimes) != 1 || !store.insertedTimes[0].Equal(mustTime(t, "2024-05-03T10:00:00Z")) {
		t.Fatalf("expected single insertion of the new slot, got %v", store.insertedTimes)
	}
}

func TestUpdateEmptyDesiredClearsSchedules(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("open")
	store.addSchedule(consID, mustTime(t, "2024-05-01T10:00:00Z"))
	store.addSchedule(consID, mustTime(t, "2024-05-02T10:00:00Z"))

	err := svc.Update(context.Background(), consID, UpdateInput{Title: "t", Status: "open"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.schedules) != 0 {
		t.Fatalf("expected all schedules removed, %d remain", len(store.schedules))
	}
}

func TestUpdateRemovalFailureSkipsAdditions(t *testing.T) {
	store := newFakeStore()
	store.failSoftDeleteSchedules = true
	svc := New(store, nil)

	consID := store.addConsultation("open")
	store.addSchedule(consID, mustTime(t, "2024-05-01T10:00:00Z"))

	err := svc.Update(context.Background(), consID, UpdateInput{
		Title:        "t",
		Status:       "open",
		ScheduleKeys: []string{"2024-05-09T10:00:00Z"},
	})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(store.insertedTimes) != 0 {
		t.Fatalf("expected no additions after removal failure, got %v", store.insertedTimes)
	}
}

func TestUpdateIdempotentSecondPass(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("open")
	desired := []string{"2024-06-01T10:00:00Z", "2024-06-02T10:00:00Z"}

	for i := 0; i < 2; i++ {
		if err := svc.Update(context.Background(), consID, UpdateInput{
			Title: "t", Status: "open", ScheduleKeys: desired,
		}); err != nil {
			t.Fatalf("pass %d: unexpected error: %v", i, err)
		}
	}

	if len(store.schedules) != 2 {
		t.Fatalf("expected 2 active schedules, got %d", len(store.schedules))
	}
	if len(store.insertedTimes) != 2 {
		t.Fatalf("expected second pass to insert nothing, total insertions %d", len(store.insertedTimes))
	}
	if len(store.deletedSchedules) != 0 {
		t.Fatalf("expected no removals, got %d", len(store.deletedSchedules))
	}
}

func TestUpdateReconcilesQuestionsPreservingUnchanged(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("open")
	if err := store.InsertQuestions(context.Background(), consID, []repository.Question{
		{QuestionType: "text", Label: "reason", Required: true},
		{QuestionType: "text", Label: "notes", Required: false},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var reasonID uuid.UUID
	for id, q := range store.questions {
		if q.Label == "reason" {
			reasonID = id
		}
	}

	err := svc.Update(context.Background(), consID, UpdateInput{
		Title: "t", Status: "open",
		Questions: []QuestionInput{
			{QuestionType: "text", Label: "reason", Required: true},
			{QuestionType: "select", Label: "topic", Required: true},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.questions[reasonID]; !ok {
		t.Fatalf("expected unchanged question to keep its row")
	}
	if len(store.questions) != 2 {
		t.Fatalf("expected 2 active questions, got %d", len(store.questions))
	}
}

func TestUpdateRejectsGarbageScheduleKey(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	consID := store.addConsultation("open")

	err := svc.Update(context.Background(), consID, UpdateInput{
		Title: "t", Status: "open", ScheduleKeys: []string{"not-a-time"},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookRejectsDuplicate(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("open")
	schedID := store.addSchedule(consID, mustTime(t, "2024-05-01T10:00:00Z"))
	userID := uuid.New()

	if _, err := svc.Book(context.Background(), consID, schedID, userID); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.Book(context.Background(), consID, schedID, userID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on duplicate booking, got %v", err)
	}
}

func TestBookRejectsClosedConsultation(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("closed")
	schedID := store.addSchedule(consID, mustTime(t, "2024-05-01T10:00:00Z"))

	if _, err := svc.Book(context.Background(), consID, schedID, uuid.New()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for closed consultation, got %v", err)
	}
}

func TestBookRejectsForeignSchedule(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	consID := store.addConsultation("open")
	otherID := store.addConsultation("open")
	schedID := store.addSchedule(otherID, mustTime(t, "2024-05-01T10:00:00Z"))

	if _, err := svc.Book(context.Background(), consID, schedID, uuid.New()); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for foreign schedule, got %v", err)
	}
}
