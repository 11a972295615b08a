package service

import (
	"context"
	"testing"
	"time"

	"member_portal_backend/internal/messages/repository"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	threads  map[uuid.UUID]*repository.Thread
	messages map[uuid.UUID]*repository.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		threads:  make(map[uuid.UUID]*repository.Thread),
		messages: make(map[uuid.UUID]*repository.Message),
	}
}

func (f *fakeStore) CreateThread(_ context.Context, userID uuid.UUID, subject string) (uuid.UUID, error) {
	id := uuid.New()
	f.threads[id] = &repository.Thread{ID: id, UserID: userID, Subject: subject}
	return id, nil
}

func (f *fakeStore) GetThread(_ context.Context, id uuid.UUID) (*repository.Thread, error) {
	t, ok := f.threads[id]
	if !ok {
		return nil, apperr.NotFound("thread not found")
	}
	return t, nil
}

func (f *fakeStore) ListThreadsByUser(_ context.Context, userID uuid.UUID) ([]repository.Thread, error) {
	var out []repository.Thread
	for _, t := range f.threads {
		if t.UserID != userID {
			continue
		}
		entry := *t
		entry.UnreadCount = f.unread(t.ID, repository.RoleStaff)
		out = append(out, entry)
	}
	return out, nil
}

func (f *fakeStore) ListAllThreads(_ context.Context) ([]repository.Thread, error) {
	var out []repository.Thread
	for _, t := range f.threads {
		entry := *t
		entry.UnreadCount = f.unread(t.ID, repository.RoleMember)
		out = append(out, entry)
	}
	return out, nil
}

func (f *fakeStore) unread(threadID uuid.UUID, role string) int {
	count := 0
	for _, m := range f.messages {
		if m.ThreadID == threadID && m.SenderRole == role && m.ReadAt == nil {
			count++
		}
	}
	return count
}

func (f *fakeStore) InsertMessage(_ context.Context, threadID uuid.UUID, senderRole string, senderID *uuid.UUID, body string) (uuid.UUID, error) {
	id := uuid.New()
	f.messages[id] = &repository.Message{ID: id, ThreadID: threadID, SenderRole: senderRole, SenderID: senderID, Body: body}
	return id, nil
}

func (f *fakeStore) ListMessages(_ context.Context, threadID uuid.UUID) ([]repository.Message, error) {
	var out []repository.Message
	for _, m := range f.messages {
		if m.ThreadID == threadID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkRead(_ context.Context, threadID uuid.UUID, senderRole string) error {
	now := time.Now()
	for _, m := range f.messages {
		if m.ThreadID == threadID && m.SenderRole == senderRole && m.ReadAt == nil {
			m.ReadAt = &now
		}
	}
	return nil
}

func TestStartThreadCreatesFirstMessage(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	userID := uuid.New()

	threadID, err := svc.StartThread(context.Background(), userID, "billing", "my card was declined")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, _ := store.ListMessages(context.Background(), threadID)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].SenderRole != repository.RoleMember {
		t.Fatalf("expected member sender, got %q", messages[0].SenderRole)
	}
}

func TestStartThreadRejectsEmptyBody(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	if _, err := svc.StartThread(context.Background(), uuid.New(), "subject", "<p></p>"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.threads) != 0 {
		t.Fatalf("expected no thread created, got %d", len(store.threads))
	}
}

func TestReadThreadOwnershipEnforced(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	ownerID := uuid.New()

	threadID, err := svc.StartThread(context.Background(), ownerID, "subject", "body")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, _, err := svc.ReadThread(context.Background(), threadID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other member, got %v", err)
	}
	if _, _, err := svc.ReadThread(context.Background(), threadID, ownerID); err != nil {
		t.Fatalf("expected owner to read thread, got %v", err)
	}
}

func TestUnreadCountsClearedOnRead(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	userID := uuid.New()
	staffID := uuid.New()

	threadID, err := svc.StartThread(context.Background(), userID, "subject", "hello")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.PostAsStaff(context.Background(), threadID, staffID, "hi there"); err != nil {
		t.Fatalf("reply: %v", err)
	}

	threads, _ := svc.ListThreads(context.Background(), userID)
	if threads[0].UnreadCount != 1 {
		t.Fatalf("expected 1 unread staff message, got %d", threads[0].UnreadCount)
	}

	if _, _, err := svc.ReadThread(context.Background(), threadID, userID); err != nil {
		t.Fatalf("read: %v", err)
	}

	threads, _ = svc.ListThreads(context.Background(), userID)
	if threads[0].UnreadCount != 0 {
		t.Fatalf("expected unread cleared, got %d", threads[0].UnreadCount)
	}

	// The member message is still unread on the staff side.
	admin, _ := svc.ListAllThreads(context.Background())
	if admin[0].UnreadCount != 1 {
		t.Fatalf("expected 1 unread member message for staff, got %d", admin[0].UnreadCount)
	}
}

func TestPostStripsHTML(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	userID := uuid.New()

	threadID, err := svc.StartThread(context.Background(), userID, "subject", "body")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	msgID, err := svc.Post(context.Background(), threadID, userID, `<script>alert(1)</script>thanks`)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if got := store.messages[msgID].Body; got != "alert(1)thanks" {
		t.Fatalf("expected HTML stripped, got %q", got)
	}
}
