package service

import (
	"bytes"
	"context"
	"testing"

	"member_portal_backend/internal/events/repository"
	"member_portal_backend/platform/apperr"
	platformevents "member_portal_backend/platform/events"

	"github.com/google/uuid"
)

type fakeStore struct {
	events        map[uuid.UUID]*repository.Event
	questions     map[uuid.UUID]*repository.Question
	files         map[uuid.UUID]*repository.File
	links         map[uuid.UUID]*repository.GroupLink
	registrations map[uuid.UUID]*repository.Registration

	insertedFileKeys []string
	deletedLinkIDs   []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[uuid.UUID]*repository.Event),
		questions:     make(map[uuid.UUID]*repository.Question),
		files:         make(map[uuid.UUID]*repository.File),
		links:         make(map[uuid.UUID]*repository.GroupLink),
		registrations: make(map[uuid.UUID]*repository.Registration),
	}
}

func (f *fakeStore) addEvent(published bool, capacity *int) uuid.UUID {
	id := uuid.New()
	f.events[id] = &repository.Event{ID: id, Title: "t", Published: published, Capacity: capacity}
	return id
}

func (f *fakeStore) addLink(eventID, groupID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.links[id] = &repository.GroupLink{ID: id, EventID: eventID, GroupID: groupID}
	return id
}

func (f *fakeStore) addFile(eventID uuid.UUID, key string) uuid.UUID {
	id := uuid.New()
	f.files[id] = &repository.File{ID: id, EventID: eventID, FileKey: key, FileName: key}
	return id
}

func (f *fakeStore) Create(_ context.Context, e repository.Event) (uuid.UUID, error) {
	id := uuid.New()
	e.ID = id
	f.events[id] = &e
	return id, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, apperr.NotFound("event not found")
	}
	return e, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]repository.Event, error) { return nil, nil }

func (f *fakeStore) ListVisible(_ context.Context, groupIDs []uuid.UUID) ([]repository.Event, error) {
	member := make(map[uuid.UUID]bool)
	for _, id := range groupIDs {
		member[id] = true
	}
	var out []repository.Event
	for _, e := range f.events {
		if !e.Published {
			continue
		}
		restricted := false
		visible := false
		for _, link := range f.links {
			if link.EventID != e.ID {
				continue
			}
			restricted = true
			if member[link.GroupID] {
				visible = true
			}
		}
		if !restricted || visible {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, e repository.Event) error {
	existing, ok := f.events[e.ID]
	if !ok {
		return apperr.NotFound("event not found")
	}
	*existing = e
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(f.events, id)
	return nil
}

func (f *fakeStore) ListQuestions(_ context.Context, eventID uuid.UUID) ([]repository.Question, error) {
	var out []repository.Question
	for _, q := range f.questions {
		if q.EventID == eventID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertQuestions(_ context.Context, eventID uuid.UUID, questions []repository.Question) error {
	for _, q := range questions {
		id := uuid.New()
		f.questions[id] = &repository.Question{
			ID: id, EventID: eventID,
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

func (f *fakeStore) ListFiles(_ context.Context, eventID uuid.UUID) ([]repository.File, error) {
	var out []repository.File
	for _, file := range f.files {
		if file.EventID == eventID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertFiles(_ context.Context, eventID uuid.UUID, files []repository.File) error {
	for _, file := range files {
		id := uuid.New()
		f.files[id] = &repository.File{
			ID: id, EventID: eventID,
			FileKey: file.FileKey, FileName: file.FileName, ContentType: file.ContentType,
		}
		f.insertedFileKeys = append(f.insertedFileKeys, file.FileKey)
	}
	return nil
}

func (f *fakeStore) SoftDeleteFiles(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.files, id)
	}
	return nil
}

func (f *fakeStore) GetFile(_ context.Context, fileID uuid.UUID) (*repository.File, error) {
	file, ok := f.files[fileID]
	if !ok {
		return nil, apperr.NotFound("file not found")
	}
	return file, nil
}

func (f *fakeStore) ListGroupLinks(_ context.Context, eventID uuid.UUID) ([]repository.GroupLink, error) {
	var out []repository.GroupLink
	for _, link := range f.links {
		if link.EventID == eventID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertGroupLinks(_ context.Context, eventID uuid.UUID, groupIDs []uuid.UUID) error {
	for _, groupID := range groupIDs {
		f.addLink(eventID, groupID)
	}
	return nil
}

func (f *fakeStore) SoftDeleteGroupLinks(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.links, id)
	}
	f.deletedLinkIDs = append(f.deletedLinkIDs, ids...)
	return nil
}

func (f *fakeStore) CountRegistrations(_ context.Context, eventID uuid.UUID) (int, error) {
	count := 0
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateRegistration(_ context.Context, eventID, userID uuid.UUID, answers []byte) (uuid.UUID, error) {
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return uuid.UUID{}, apperr.Conflict("already registered for event")
		}
	}
	id := uuid.New()
	f.registrations[id] = &repository.Registration{ID: id, EventID: eventID, UserID: userID, Answers: answers}
	return id, nil
}

func (f *fakeStore) GetRegistration(_ context.Context, eventID, userID uuid.UUID) (*repository.Registration, error) {
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return reg, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CancelRegistration(_ context.Context, eventID, userID uuid.UUID) error {
	for id, reg := range f.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			delete(f.registrations, id)
		}
	}
	return nil
}

func (f *fakeStore) ListRegistrations(_ context.Context, eventID uuid.UUID) ([]repository.Registration, error) {
	var out []repository.Registration
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

type fakeGroups struct {
	byUser map[uuid.UUID][]uuid.UUID
}

func (f *fakeGroups) GroupIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.byUser[userID], nil
}

func newService(store *fakeStore, groups *fakeGroups) *Service {
	if groups == nil {
		groups = &fakeGroups{byUser: map[uuid.UUID][]uuid.UUID{}}
	}
	return New(store, groups, nil, nil, nil)
}

func TestUpdateReconcilesGroupLinks(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)
	keepGroup := uuid.New()
	dropGroup := uuid.New()
	newGroup := uuid.New()
	keepLink := store.addLink(eventID, keepGroup)
	store.addLink(eventID, dropGroup)

	err := svc.Update(context.Background(), eventID, EventInput{
		Title:     "t",
		Published: true,
		GroupIDs:  []uuid.UUID{keepGroup, newGroup},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.links[keepLink]; !ok {
		t.Fatalf("expected unchanged link kept")
	}
	if len(store.links) != 2 {
		t.Fatalf("expected 2 active links, got %d", len(store.links))
	}
	if len(store.deletedLinkIDs) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(store.deletedLinkIDs))
	}
}

func TestUpdateReconcilesFilesByKey(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)
	keepID := store.addFile(eventID, "events/a.pdf")
	store.addFile(eventID, "events/b.pdf")

	err := svc.Update(context.Background(), eventID, EventInput{
		Title:     "t",
		Published: true,
		Files: []FileInput{
			{FileKey: "events/a.pdf", FileName: "a.pdf"},
			{FileKey: "events/c.pdf", FileName: "c.pdf"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.files[keepID]; !ok {
		t.Fatalf("expected unchanged file kept")
	}
	if len(store.insertedFileKeys) != 1 || store.insertedFileKeys[0] != "events/c.pdf" {
		t.Fatalf("expected single insertion of events/c.pdf, got %v", store.insertedFileKeys)
	}
	if len(store.files) != 2 {
		t.Fatalf("expected 2 active files, got %d", len(store.files))
	}
}

func TestUpdateIdempotentSecondPass(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)
	in := EventInput{
		Title:     "t",
		Published: true,
		Questions: []QuestionInput{{QuestionType: "text", Label: "diet", Required: false}},
		Files:     []FileInput{{FileKey: "events/a.pdf", FileName: "a.pdf"}},
		GroupIDs:  []uuid.UUID{uuid.New()},
	}

	for i := 0; i < 2; i++ {
		if err := svc.Update(context.Background(), eventID, in); err != nil {
			t.Fatalf("pass %d: unexpected error: %v", i, err)
		}
	}

	if len(store.questions) != 1 || len(store.files) != 1 || len(store.links) != 1 {
		t.Fatalf("expected one of each child, got q=%d f=%d l=%d",
			len(store.questions), len(store.files), len(store.links))
	}
	if len(store.insertedFileKeys) != 1 {
		t.Fatalf("expected second pass to insert nothing, total insertions %d", len(store.insertedFileKeys))
	}
}

func TestGetVisibleUnrestrictedEvent(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)

	if _, err := svc.GetVisible(context.Background(), eventID, uuid.New()); err != nil {
		t.Fatalf("expected unrestricted event visible, got %v", err)
	}
}

func TestGetVisibleHidesRestrictedEvent(t *testing.T) {
	store := newFakeStore()
	memberID := uuid.New()
	outsiderID := uuid.New()
	groupID := uuid.New()
	groups := &fakeGroups{byUser: map[uuid.UUID][]uuid.UUID{memberID: {groupID}}}
	svc := newService(store, groups)

	eventID := store.addEvent(true, nil)
	store.addLink(eventID, groupID)

	if _, err := svc.GetVisible(context.Background(), eventID, memberID); err != nil {
		t.Fatalf("expected group member to see event, got %v", err)
	}
	if _, err := svc.GetVisible(context.Background(), eventID, outsiderID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for outsider, got %v", err)
	}
}

func TestGetVisibleHidesDraft(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(false, nil)

	if _, err := svc.GetVisible(context.Background(), eventID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for draft, got %v", err)
	}
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	capacity := 1
	eventID := store.addEvent(true, &capacity)

	if _, err := svc.Register(context.Background(), eventID, uuid.New(), nil); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), eventID, uuid.New(), nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict when full, got %v", err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)
	userID := uuid.New()

	if _, err := svc.Register(context.Background(), eventID, userID, nil); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), eventID, userID, nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}
}

func TestCancelThenReregister(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)
	userID := uuid.New()

	if _, err := svc.Register(context.Background(), eventID, userID, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.CancelRegistration(context.Background(), eventID, userID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Register(context.Background(), eventID, userID, nil); err != nil {
		t.Fatalf("expected re-registration after cancel, got %v", err)
	}
}

func TestTicketRequiresRegistration(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	eventID := store.addEvent(true, nil)
	userID := uuid.New()

	if _, err := svc.Ticket(context.Background(), eventID, userID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found without registration, got %v", err)
	}

	if _, err := svc.Register(context.Background(), eventID, userID, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	png, err := svc.Ticket(context.Background(), eventID, userID)
	if err != nil {
		t.Fatalf("ticket: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected PNG payload")
	}
}

type recordingBus struct {
	published []platformevents.Event
}

func (b *recordingBus) Publish(_ context.Context, event platformevents.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event platformevents.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *recordingBus) Subscribe(string, platformevents.Handler) {}

func TestRegisterPublishesConfirmationEvent(t *testing.T) {
	store := newFakeStore()
	bus := &recordingBus{}
	svc := New(store, &fakeGroups{byUser: map[uuid.UUID][]uuid.UUID{}}, nil, bus, nil)

	eventID := store.addEvent(true, nil)
	userID := uuid.New()

	regID, err := svc.Register(context.Background(), eventID, userID, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	ev, ok := bus.published[0].(RegistrationCreated)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if ev.RegistrationID != regID || ev.UserID != userID || ev.EventID != eventID {
		t.Fatalf("event fields mismatch: %+v", ev)
	}
}
