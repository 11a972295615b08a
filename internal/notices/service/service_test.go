package service

import (
	"context"
	"testing"

	"member_portal_backend/internal/notices/repository"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	notices map[uuid.UUID]*repository.Notice
}

func newFakeStore() *fakeStore {
	return &fakeStore{notices: make(map[uuid.UUID]*repository.Notice)}
}

func (f *fakeStore) Create(_ context.Context, n repository.Notice) (uuid.UUID, error) {
	id := uuid.New()
	n.ID = id
	f.notices[id] = &n
	return id, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Notice, error) {
	n, ok := f.notices[id]
	if !ok {
		return nil, apperr.NotFound("notice not found")
	}
	return n, nil
}

func (f *fakeStore) List(_ context.Context, publishedOnly bool) ([]repository.Notice, error) {
	var out []repository.Notice
	for _, n := range f.notices {
		if publishedOnly && !n.Published {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, n repository.Notice) error {
	existing, ok := f.notices[n.ID]
	if !ok {
		return apperr.NotFound("notice not found")
	}
	existing.Title, existing.Body = n.Title, n.Body
	existing.Pinned, existing.Published = n.Pinned, n.Published
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(f.notices, id)
	return nil
}

func TestCreateStripsHTMLFromBody(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	id, err := svc.Create(context.Background(), Input{
		Title: "maintenance",
		Body:  "<p>scheduled <b>downtime</b></p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notice := store.notices[id]
	if notice.Body != "scheduled downtime" {
		t.Fatalf("expected HTML stripped, got %q", notice.Body)
	}
}

func TestGetPublishedHidesDraft(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	id, err := svc.Create(context.Background(), Input{Title: "draft", Body: "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetPublished(context.Background(), id); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for draft, got %v", err)
	}

	if err := svc.Update(context.Background(), id, Input{Title: "draft", Body: "b", Published: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.GetPublished(context.Background(), id); err != nil {
		t.Fatalf("expected published notice visible, got %v", err)
	}
}

func TestListPublishedOnlyExcludesDrafts(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	if _, err := svc.Create(context.Background(), Input{Title: "a", Body: "b", Published: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), Input{Title: "c", Body: "d"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	published, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("expected 1 published notice, got %d", len(published))
	}

	all, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(all))
	}
}
