package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"member_portal_backend/internal/search/repository"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	events        []repository.Result
	notices       []repository.Result
	consultations []repository.Result

	gotPattern string
	noticesErr error
}

func (f *fakeStore) SearchEvents(_ context.Context, pattern string, _ int) ([]repository.Result, error) {
	f.gotPattern = pattern
	return f.events, nil
}

func (f *fakeStore) SearchNotices(_ context.Context, _ string, _ int) ([]repository.Result, error) {
	if f.noticesErr != nil {
		return nil, f.noticesErr
	}
	return f.notices, nil
}

func (f *fakeStore) SearchConsultations(_ context.Context, _ string, _ int) ([]repository.Result, error) {
	return f.consultations, nil
}

func result(entityType string, age time.Duration) repository.Result {
	return repository.Result{
		ID:        uuid.New(),
		Type:      entityType,
		Title:     "t",
		CreatedAt: time.Now().Add(-age),
	}
}

func TestSearchMergesNewestFirst(t *testing.T) {
	store := &fakeStore{
		events:        []repository.Result{result(repository.TypeEvent, 2*time.Hour)},
		notices:       []repository.Result{result(repository.TypeNotice, time.Hour)},
		consultations: []repository.Result{result(repository.TypeConsultation, 3*time.Hour)},
	}
	svc := New(store, nil)

	results, err := svc.Search(context.Background(), "summer", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{repository.TypeNotice, repository.TypeEvent, repository.TypeConsultation}
	for i, entityType := range want {
		if results[i].Type != entityType {
			t.Fatalf("position %d: expected %s, got %s", i, entityType, results[i].Type)
		}
	}
}

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	store := &fakeStore{events: []repository.Result{result(repository.TypeEvent, 0)}}
	svc := New(store, nil)

	results, err := svc.Search(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for blank query, got %d", len(results))
	}
	if store.gotPattern != "" {
		t.Fatalf("expected no queries issued, got pattern %q", store.gotPattern)
	}
}

func TestSearchEscapesLikeMetacharacters(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil)

	if _, err := svc.Search(context.Background(), "100%_done", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(store.gotPattern, `\%`) || !strings.Contains(store.gotPattern, `\_`) {
		t.Fatalf("expected escaped metacharacters, got %q", store.gotPattern)
	}
}

func TestSearchSurfacesStorageFailure(t *testing.T) {
	store := &fakeStore{noticesErr: errors.New("connection reset")}
	svc := New(store, nil)

	if _, err := svc.Search(context.Background(), "summer", 10); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
