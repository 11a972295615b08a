// Package service implements group-targeted announcement broadcasts: the
// admin composes a broadcast, recipients are snapshotted from the targeted
// groups, and delivery runs asynchronously through the job queue.
package service

import (
	"context"

	"member_portal_backend/internal/broadcast/repository"
	"member_portal_backend/internal/email"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// RecipientSource resolves the active members of the targeted groups.
type RecipientSource interface {
	ActiveRecipients(ctx context.Context, groupIDs []uuid.UUID) ([]repository.Recipient, error)
}

// Enqueuer schedules asynchronous broadcast delivery. Nil-safe: a nil
// enqueuer leaves the broadcast pending for a later worker pass.
type Enqueuer interface {
	EnqueueBroadcastDelivery(ctx context.Context, broadcastID uuid.UUID) error
}

// Input carries the admin's broadcast form.
type Input struct {
	Subject  string
	Body     string
	GroupIDs []uuid.UUID
}

// Service coordinates broadcast state and delivery.
type Service struct {
	store      repository.Store
	recipients RecipientSource
	enqueuer   Enqueuer
	sender     email.Sender
	log        *logger.Logger
}

// New creates a broadcast service.
func New(store repository.Store, recipients RecipientSource, enqueuer Enqueuer, sender email.Sender, log *logger.Logger) *Service {
	return &Service{store: store, recipients: recipients, enqueuer: enqueuer, sender: sender, log: log}
}

// Create snapshots the recipients of the targeted groups and enqueues
// delivery. An empty group list targets every active member. A broadcast
// with no recipients is rejected.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, in Input) (uuid.UUID, error) {
	subject := sanitize.Text(in.Subject)
	body := sanitize.Text(in.Body)
	if subject == "" {
		return uuid.UUID{}, apperr.Validation("subject is required")
	}
	if body == "" {
		return uuid.UUID{}, apperr.Validation("body is required")
	}

	recipients, err := s.recipients.ActiveRecipients(ctx, in.GroupIDs)
	if err != nil {
		return uuid.UUID{}, apperr.Storage("broadcast.resolve_recipients", err)
	}
	if len(recipients) == 0 {
		return uuid.UUID{}, apperr.Validation("targeted groups have no active members")
	}

	id, err := s.store.Create(ctx, subject, body, &createdBy, in.GroupIDs, recipients)
	if err != nil {
		return uuid.UUID{}, apperr.Storage("broadcast.create", err)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueBroadcastDelivery(ctx, id); err != nil {
			// The broadcast row stays pending; a worker sweep can pick it up.
			if s.log != nil {
				s.log.Error("failed to enqueue broadcast delivery", "broadcast_id", id, "error", err)
			}
		}
	}
	return id, nil
}

// List returns all broadcasts for the admin dashboard.
func (s *Service) List(ctx context.Context) ([]repository.Broadcast, error) {
	return s.store.List(ctx)
}

// Get returns a broadcast with its per-recipient delivery outcomes.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Broadcast, []repository.Delivery, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	deliveries, err := s.store.ListDeliveries(ctx, id)
	if err != nil {
		return nil, nil, apperr.Storage("broadcast.list_deliveries", err)
	}
	return b, deliveries, nil
}

// Deliver sends the broadcast to every pending recipient. Failed sends are
// recorded per delivery and do not stop the rest. Called by the queue worker;
// safe to retry since sent deliveries are no longer pending.
func (s *Service) Deliver(ctx context.Context, broadcastID uuid.UUID) error {
	b, err := s.store.GetByID(ctx, broadcastID)
	if err != nil {
		return err
	}
	if b.Status == repository.StatusSent {
		return nil
	}

	if err := s.store.SetStatus(ctx, broadcastID, repository.StatusSending); err != nil {
		return apperr.Storage("broadcast.set_status", err)
	}

	pending, err := s.store.ListPendingDeliveries(ctx, broadcastID)
	if err != nil {
		return apperr.Storage("broadcast.list_pending", err)
	}

	failures := 0
	for _, d := range pending {
		if err := s.sender.SendBroadcastEmail(ctx, d.Email, b.Subject, b.Body); err != nil {
			failures++
			if markErr := s.store.MarkDeliveryFailed(ctx, d.ID, err.Error()); markErr != nil {
				return apperr.Storage("broadcast.mark_failed", markErr)
			}
			if s.log != nil {
				s.log.BroadcastDelivery(broadcastID.String(), d.Email, false, err.Error())
			}
			continue
		}
		if err := s.store.MarkDeliverySent(ctx, d.ID); err != nil {
			return apperr.Storage("broadcast.mark_sent", err)
		}
		if s.log != nil {
			s.log.BroadcastDelivery(broadcastID.String(), d.Email, true, "")
		}
	}

	status := repository.StatusSent
	if failures > 0 && failures == len(pending) {
		status = repository.StatusFailed
	}
	if err := s.store.SetStatus(ctx, broadcastID, status); err != nil {
		return apperr.Storage("broadcast.set_status", err)
	}
	return nil
}
