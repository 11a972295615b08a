// Package service implements notice management for the admin dashboard and
// the member notice board.
package service

import (
	"context"

	"member_portal_backend/internal/notices/repository"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Input carries the desired state for a notice. Body HTML is stripped before
// persistence.
type Input struct {
	Title     string
	Body      string
	Pinned    bool
	Published bool
}

// Service coordinates notice state.
type Service struct {
	store repository.Store
	log   *logger.Logger
}

// New creates a notices service.
func New(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Create inserts a new notice.
func (s *Service) Create(ctx context.Context, in Input) (uuid.UUID, error) {
	id, err := s.store.Create(ctx, repository.Notice{
		Title:     sanitize.Text(in.Title),
		Body:      sanitize.Text(in.Body),
		Pinned:    in.Pinned,
		Published: in.Published,
	})
	if err != nil {
		return uuid.UUID{}, apperr.Storage("notices.create", err)
	}
	return id, nil
}

// Update modifies a notice.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) error {
	return s.store.Update(ctx, repository.Notice{
		ID:        id,
		Title:     sanitize.Text(in.Title),
		Body:      sanitize.Text(in.Body),
		Pinned:    in.Pinned,
		Published: in.Published,
	})
}

// Get returns a notice for the admin dashboard, drafts included.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Notice, error) {
	return s.store.GetByID(ctx, id)
}

// GetPublished returns a notice only if it is published.
func (s *Service) GetPublished(ctx context.Context, id uuid.UUID) (*repository.Notice, error) {
	notice, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !notice.Published {
		return nil, apperr.NotFound("notice not found")
	}
	return notice, nil
}

// List returns notices; members only see published ones.
func (s *Service) List(ctx context.Context, publishedOnly bool) ([]repository.Notice, error) {
	return s.store.List(ctx, publishedOnly)
}

// Delete soft-deletes a notice.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.SoftDelete(ctx, id)
}
