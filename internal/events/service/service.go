// Package service implements event management: parent CRUD with diff-based
// reconciliation of registration questions, attachments, and group visibility
// links, plus member registration with capacity enforcement.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"member_portal_backend/internal/events/repository"
	"member_portal_backend/internal/reconcile"
	"member_portal_backend/internal/storage"
	"member_portal_backend/platform/apperr"
	platformevents "member_portal_backend/platform/events"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/sanitize"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// QuestionInput is a desired registration question supplied by the admin form.
type QuestionInput struct {
	QuestionType string
	Label        string
	Required     bool
}

func (q QuestionInput) key() string {
	return fmt.Sprintf("%s|%s|%t", q.QuestionType, q.Label, q.Required)
}

func questionKey(q repository.Question) string {
	return fmt.Sprintf("%s|%s|%t", q.QuestionType, q.Label, q.Required)
}

// FileInput is a desired attachment. The file itself is uploaded to object
// storage beforehand via a presigned URL; FileKey references it.
type FileInput struct {
	FileKey     string
	FileName    string
	ContentType *string
}

// EventInput carries the full desired state for an event.
type EventInput struct {
	Title     string
	Body      *string
	Location  *string
	StartsAt  *time.Time
	EndsAt    *time.Time
	Capacity  *int
	Published bool
	Questions []QuestionInput
	Files     []FileInput
	GroupIDs  []uuid.UUID
}

// GroupDirectory resolves the authenticated member's active group memberships
// for visibility filtering.
type GroupDirectory interface {
	GroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Detail bundles an event with its active children.
type Detail struct {
	Event     *repository.Event
	Questions []repository.Question
	Files     []repository.File
	GroupIDs  []uuid.UUID
}

// RegistrationCreated is published after a member registers for an event.
type RegistrationCreated struct {
	platformevents.BaseEvent
	RegistrationID uuid.UUID
	EventID        uuid.UUID
	UserID         uuid.UUID
	EventTitle     string
	StartsAt       *time.Time
}

// EventName implements events.Event.
func (e RegistrationCreated) EventName() string { return "events.registration_created" }

// Service coordinates event state.
type Service struct {
	store   repository.Store
	groups  GroupDirectory
	storage storage.Service
	bus     platformevents.Bus
	log     *logger.Logger
}

// New creates an events service. storage may be nil when object storage is
// not configured; file URL operations then fail with a configuration error.
// bus may be nil; registration events are then not published.
func New(store repository.Store, groups GroupDirectory, store2 storage.Service, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{store: store, groups: groups, storage: store2, bus: bus, log: log}
}

// Create inserts the parent row and its initial children.
func (s *Service) Create(ctx context.Context, in EventInput) (uuid.UUID, error) {
	id, err := s.store.Create(ctx, repository.Event{
		Title:     in.Title,
		Body:      sanitize.TextPtr(in.Body),
		Location:  in.Location,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
		Capacity:  in.Capacity,
		Published: in.Published,
	})
	if err != nil {
		return uuid.UUID{}, apperr.Storage("events.create", err)
	}

	if err := s.store.InsertQuestions(ctx, id, toQuestionRows(in.Questions)); err != nil {
		return uuid.UUID{}, apperr.Storage("events.insert_questions", err)
	}
	if err := s.store.InsertFiles(ctx, id, toFileRows(in.Files)); err != nil {
		return uuid.UUID{}, apperr.Storage("events.insert_files", err)
	}
	if err := s.store.InsertGroupLinks(ctx, id, in.GroupIDs); err != nil {
		return uuid.UUID{}, apperr.Storage("events.insert_groups", err)
	}

	return id, nil
}

// Update modifies the parent row, then reconciles questions, attachments,
// and group visibility links against the desired state. Each reconciliation
// applies removals before additions; the first storage failure aborts that
// step and is surfaced without attempting the rest.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in EventInput) error {
	err := s.store.Update(ctx, repository.Event{
		ID:        id,
		Title:     in.Title,
		Body:      sanitize.TextPtr(in.Body),
		Location:  in.Location,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
		Capacity:  in.Capacity,
		Published: in.Published,
	})
	if err != nil {
		return err
	}

	if err := s.reconcileQuestions(ctx, id, in.Questions); err != nil {
		return err
	}
	if err := s.reconcileFiles(ctx, id, in.Files); err != nil {
		return err
	}
	return s.reconcileGroupLinks(ctx, id, in.GroupIDs)
}

func (s *Service) reconcileQuestions(ctx context.Context, id uuid.UUID, desired []QuestionInput) error {
	current, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return apperr.Storage("events.list_questions", err)
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
		return apperr.Storage("events.questions.apply_removals", err)
	}

	additions := make([]repository.Question, 0, len(plan.ToAdd))
	for _, key := range plan.ToAdd {
		q := byKey[key]
		additions = append(additions, repository.Question{QuestionType: q.QuestionType, Label: q.Label, Required: q.Required})
	}
	if err := s.store.InsertQuestions(ctx, id, additions); err != nil {
		return apperr.Storage("events.questions.apply_additions", err)
	}
	return nil
}

func (s *Service) reconcileFiles(ctx context.Context, id uuid.UUID, desired []FileInput) error {
	current, err := s.store.ListFiles(ctx, id)
	if err != nil {
		return apperr.Storage("events.list_files", err)
	}

	children := make([]reconcile.Child, len(current))
	for i, f := range current {
		children[i] = reconcile.Child{ID: f.ID, Key: f.FileKey}
	}

	desiredKeys := make([]string, len(desired))
	byKey := make(map[string]FileInput, len(desired))
	for i, f := range desired {
		desiredKeys[i] = f.FileKey
		byKey[f.FileKey] = f
	}

	plan := reconcile.Compute(children, desiredKeys, reconcile.Identity)
	if plan.Empty() {
		return nil
	}

	if err := s.store.SoftDeleteFiles(ctx, childIDs(plan.ToRemove)); err != nil {
		return apperr.Storage("events.files.apply_removals", err)
	}

	additions := make([]repository.File, 0, len(plan.ToAdd))
	for _, key := range plan.ToAdd {
		f := byKey[key]
		additions = append(additions, repository.File{FileKey: f.FileKey, FileName: f.FileName, ContentType: f.ContentType})
	}
	if err := s.store.InsertFiles(ctx, id, additions); err != nil {
		return apperr.Storage("events.files.apply_additions", err)
	}
	return nil
}

func (s *Service) reconcileGroupLinks(ctx context.Context, id uuid.UUID, desired []uuid.UUID) error {
	current, err := s.store.ListGroupLinks(ctx, id)
	if err != nil {
		return apperr.Storage("events.list_groups", err)
	}

	children := make([]reconcile.Child, len(current))
	for i, g := range current {
		children[i] = reconcile.Child{ID: g.ID, Key: g.GroupID.String()}
	}

	desiredKeys := make([]string, len(desired))
	for i, groupID := range desired {
		desiredKeys[i] = groupID.String()
	}

	plan := reconcile.Compute(children, desiredKeys, reconcile.Identity)
	if plan.Empty() {
		return nil
	}

	if err := s.store.SoftDeleteGroupLinks(ctx, childIDs(plan.ToRemove)); err != nil {
		return apperr.Storage("events.groups.apply_removals", err)
	}

	additions := make([]uuid.UUID, 0, len(plan.ToAdd))
	for _, key := range plan.ToAdd {
		groupID, err := uuid.Parse(key)
		if err != nil {
			return apperr.Validation("invalid group ID: " + key)
		}
		additions = append(additions, groupID)
	}
	if err := s.store.InsertGroupLinks(ctx, id, additions); err != nil {
		return apperr.Storage("events.groups.apply_additions", err)
	}
	return nil
}

// Get returns an event with its active children, without a visibility check.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	event, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, event)
}

// GetVisible returns the event only if the member may see it.
func (s *Service) GetVisible(ctx context.Context, id, userID uuid.UUID) (*Detail, error) {
	event, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Published {
		return nil, apperr.NotFound("event not found")
	}

	detail, err := s.loadDetail(ctx, event)
	if err != nil {
		return nil, err
	}

	visible, err := s.isVisibleTo(ctx, detail.GroupIDs, userID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperr.NotFound("event not found")
	}
	return detail, nil
}

func (s *Service) loadDetail(ctx context.Context, event *repository.Event) (*Detail, error) {
	questions, err := s.store.ListQuestions(ctx, event.ID)
	if err != nil {
		return nil, apperr.Storage("events.list_questions", err)
	}
	files, err := s.store.ListFiles(ctx, event.ID)
	if err != nil {
		return nil, apperr.Storage("events.list_files", err)
	}
	links, err := s.store.ListGroupLinks(ctx, event.ID)
	if err != nil {
		return nil, apperr.Storage("events.list_groups", err)
	}

	groupIDs := make([]uuid.UUID, len(links))
	for i, link := range links {
		groupIDs[i] = link.GroupID
	}
	return &Detail{Event: event, Questions: questions, Files: files, GroupIDs: groupIDs}, nil
}

// isVisibleTo reports whether a member sees an event with the given group
// links. No links means visible to everyone.
func (s *Service) isVisibleTo(ctx context.Context, linkedGroups []uuid.UUID, userID uuid.UUID) (bool, error) {
	if len(linkedGroups) == 0 {
		return true, nil
	}
	memberGroups, err := s.groups.GroupIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	member := make(map[uuid.UUID]bool, len(memberGroups))
	for _, id := range memberGroups {
		member[id] = true
	}
	for _, id := range linkedGroups {
		if member[id] {
			return true, nil
		}
	}
	return false, nil
}

// ListAll returns all events for the admin dashboard.
func (s *Service) ListAll(ctx context.Context) ([]repository.Event, error) {
	return s.store.ListAll(ctx)
}

// ListVisible returns published events the member may see.
func (s *Service) ListVisible(ctx context.Context, userID uuid.UUID) ([]repository.Event, error) {
	groupIDs, err := s.groups.GroupIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListVisible(ctx, groupIDs)
}

// Delete soft-deletes the event parent.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.SoftDelete(ctx, id)
}

// Register registers the member for an event. The event must be published and
// visible to the member, capacity must not be exhausted, and a second active
// registration is rejected.
func (s *Service) Register(ctx context.Context, eventID, userID uuid.UUID, answers json.RawMessage) (uuid.UUID, error) {
	detail, err := s.GetVisible(ctx, eventID, userID)
	if err != nil {
		return uuid.UUID{}, err
	}

	if detail.Event.Capacity != nil {
		count, err := s.store.CountRegistrations(ctx, eventID)
		if err != nil {
			return uuid.UUID{}, apperr.Storage("events.count_registrations", err)
		}
		if count >= *detail.Event.Capacity {
			return uuid.UUID{}, apperr.Conflict("event is full")
		}
	}

	if answers == nil {
		answers = json.RawMessage("[]")
	}
	regID, err := s.store.CreateRegistration(ctx, eventID, userID, answers)
	if err != nil {
		return uuid.UUID{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, RegistrationCreated{
			BaseEvent:      platformevents.NewBaseEvent(),
			RegistrationID: regID,
			EventID:        eventID,
			UserID:         userID,
			EventTitle:     detail.Event.Title,
			StartsAt:       detail.Event.StartsAt,
		})
	}
	return regID, nil
}

// CancelRegistration removes the member's registration; absent registrations
// are a no-op.
func (s *Service) CancelRegistration(ctx context.Context, eventID, userID uuid.UUID) error {
	if err := s.store.CancelRegistration(ctx, eventID, userID); err != nil {
		return apperr.Storage("events.cancel_registration", err)
	}
	return nil
}

// ListRegistrations returns the attendee list for the admin dashboard.
func (s *Service) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]repository.Registration, error) {
	if _, err := s.store.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListRegistrations(ctx, eventID)
}

// Ticket returns a PNG QR code encoding the member's registration ID, used
// for on-site check-in.
func (s *Service) Ticket(ctx context.Context, eventID, userID uuid.UUID) ([]byte, error) {
	reg, err := s.store.GetRegistration(ctx, eventID, userID)
	if err != nil {
		return nil, apperr.Storage("events.get_registration", err)
	}
	if reg == nil {
		return nil, apperr.NotFound("registration not found")
	}

	png, err := qrcode.Encode(reg.ID.String(), qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate ticket", err)
	}
	return png, nil
}

// UploadURL creates a presigned upload URL for an event attachment.
func (s *Service) UploadURL(ctx context.Context, eventID uuid.UUID, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, apperr.Configuration("object storage is not configured")
	}
	if _, err := s.store.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	presigned, err := s.storage.GenerateUploadURL(ctx, "events/"+eventID.String(), fileName, contentType, sizeBytes)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return presigned, nil
}

// DownloadURL creates a presigned download URL for an event attachment the
// member may see.
func (s *Service) DownloadURL(ctx context.Context, fileID, userID uuid.UUID) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, apperr.Configuration("object storage is not configured")
	}

	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetVisible(ctx, file.EventID, userID); err != nil {
		return nil, err
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, file.FileKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate download URL", err)
	}
	return presigned, nil
}

func toQuestionRows(in []QuestionInput) []repository.Question {
	out := make([]repository.Question, len(in))
	for i, q := range in {
		out[i] = repository.Question{QuestionType: q.QuestionType, Label: q.Label, Required: q.Required}
	}
	return out
}

func toFileRows(in []FileInput) []repository.File {
	out := make([]repository.File, len(in))
	for i, f := range in {
		out[i] = repository.File{FileKey: f.FileKey, FileName: f.FileName, ContentType: f.ContentType}
	}
	return out
}

func childIDs(children []reconcile.Child) []uuid.UUID {
	ids := make([]uuid.UUID, len(children))
	for i, c := range children {
		ids[i] = c.ID
	}
	return ids
}
