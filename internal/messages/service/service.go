// Package service implements member/staff support messaging: threads owned
// by a member, posts from either side, and unread tracking per counterparty.
package service

import (
	"context"

	"member_portal_backend/internal/messages/repository"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Service coordinates message thread state.
type Service struct {
	store repository.Store
	log   *logger.Logger
}

// New creates a messages service.
func New(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// StartThread creates a thread for the member with its first message.
func (s *Service) StartThread(ctx context.Context, userID uuid.UUID, subject, body string) (uuid.UUID, error) {
	subject = sanitize.Text(subject)
	body = sanitize.Text(body)
	if subject == "" {
		return uuid.UUID{}, apperr.Validation("subject is required")
	}
	if body == "" {
		return uuid.UUID{}, apperr.Validation("message body is required")
	}

	threadID, err := s.store.CreateThread(ctx, userID, subject)
	if err != nil {
		return uuid.UUID{}, apperr.Storage("messages.create_thread", err)
	}
	if _, err := s.store.InsertMessage(ctx, threadID, repository.RoleMember, &userID, body); err != nil {
		return uuid.UUID{}, apperr.Storage("messages.insert_message", err)
	}
	return threadID, nil
}

// ListThreads returns the member's threads with unread staff message counts.
func (s *Service) ListThreads(ctx context.Context, userID uuid.UUID) ([]repository.Thread, error) {
	return s.store.ListThreadsByUser(ctx, userID)
}

// ListAllThreads returns every thread for the admin inbox.
func (s *Service) ListAllThreads(ctx context.Context) ([]repository.Thread, error) {
	return s.store.ListAllThreads(ctx)
}

// ReadThread returns the member's thread with its messages and marks staff
// posts as read. Members cannot read other members' threads.
func (s *Service) ReadThread(ctx context.Context, threadID, userID uuid.UUID) (*repository.Thread, []repository.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	if thread.UserID != userID {
		return nil, nil, apperr.NotFound("thread not found")
	}
	return s.readThread(ctx, thread, repository.RoleStaff)
}

// ReadThreadAsStaff returns any thread with its messages and marks member
// posts as read.
func (s *Service) ReadThreadAsStaff(ctx context.Context, threadID uuid.UUID) (*repository.Thread, []repository.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	return s.readThread(ctx, thread, repository.RoleMember)
}

func (s *Service) readThread(ctx context.Context, thread *repository.Thread, counterpartyRole string) (*repository.Thread, []repository.Message, error) {
	messages, err := s.store.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, nil, apperr.Storage("messages.list_messages", err)
	}
	if err := s.store.MarkRead(ctx, thread.ID, counterpartyRole); err != nil {
		return nil, nil, apperr.Storage("messages.mark_read", err)
	}
	return thread, messages, nil
}

// Post adds a member message to the member's own thread.
func (s *Service) Post(ctx context.Context, threadID, userID uuid.UUID, body string) (uuid.UUID, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return uuid.UUID{}, err
	}
	if thread.UserID != userID {
		return uuid.UUID{}, apperr.NotFound("thread not found")
	}
	return s.post(ctx, threadID, repository.RoleMember, &userID, body)
}

// PostAsStaff adds a staff reply to any thread.
func (s *Service) PostAsStaff(ctx context.Context, threadID, staffID uuid.UUID, body string) (uuid.UUID, error) {
	if _, err := s.store.GetThread(ctx, threadID); err != nil {
		return uuid.UUID{}, err
	}
	return s.post(ctx, threadID, repository.RoleStaff, &staffID, body)
}

func (s *Service) post(ctx context.Context, threadID uuid.UUID, role string, senderID *uuid.UUID, body string) (uuid.UUID, error) {
	body = sanitize.Text(body)
	if body == "" {
		return uuid.UUID{}, apperr.Validation("message body is required")
	}
	id, err := s.store.InsertMessage(ctx, threadID, role, senderID, body)
	if err != nil {
		return uuid.UUID{}, apperr.Storage("messages.insert_message", err)
	}
	return id, nil
}
