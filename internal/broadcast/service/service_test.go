package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"member_portal_backend/internal/broadcast/repository"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	broadcasts map[uuid.UUID]*repository.Broadcast
	deliveries map[uuid.UUID]*repository.Delivery

	createdGroups []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		broadcasts: make(map[uuid.UUID]*repository.Broadcast),
		deliveries: make(map[uuid.UUID]*repository.Delivery),
	}
}

func (f *fakeStore) Create(_ context.Context, subject, body string, createdBy *uuid.UUID, groupIDs []uuid.UUID, recipients []repository.Recipient) (uuid.UUID, error) {
	id := uuid.New()
	f.broadcasts[id] = &repository.Broadcast{ID: id, Subject: subject, Body: body, Status: repository.StatusPending, CreatedBy: createdBy}
	f.createdGroups = groupIDs
	for _, rec := range recipients {
		did := uuid.New()
		f.deliveries[did] = &repository.Delivery{
			ID: did, BroadcastID: id, UserID: rec.UserID, Email: rec.Email, Status: repository.StatusPending,
		}
	}
	return id, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Broadcast, error) {
	b, ok := f.broadcasts[id]
	if !ok {
		return nil, apperr.NotFound("broadcast not found")
	}
	return b, nil
}

func (f *fakeStore) List(_ context.Context) ([]repository.Broadcast, error) { return nil, nil }

func (f *fakeStore) ListDeliveries(_ context.Context, broadcastID uuid.UUID) ([]repository.Delivery, error) {
	var out []repository.Delivery
	for _, d := range f.deliveries {
		if d.BroadcastID == broadcastID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPendingDeliveries(_ context.Context, broadcastID uuid.UUID) ([]repository.Delivery, error) {
	var out []repository.Delivery
	for _, d := range f.deliveries {
		if d.BroadcastID == broadcastID && d.Status == repository.StatusPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkDeliverySent(_ context.Context, deliveryID uuid.UUID) error {
	now := time.Now()
	f.deliveries[deliveryID].Status = repository.StatusSent
	f.deliveries[deliveryID].SentAt = &now
	return nil
}

func (f *fakeStore) MarkDeliveryFailed(_ context.Context, deliveryID uuid.UUID, sendErr string) error {
	f.deliveries[deliveryID].Status = repository.StatusFailed
	f.deliveries[deliveryID].Error = &sendErr
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	f.broadcasts[id].Status = status
	return nil
}

type fakeRecipients struct {
	recipients []repository.Recipient
}

func (f *fakeRecipients) ActiveRecipients(_ context.Context, _ []uuid.UUID) ([]repository.Recipient, error) {
	return f.recipients, nil
}

type fakeEnqueuer struct {
	enqueued []uuid.UUID
}

func (f *fakeEnqueuer) EnqueueBroadcastDelivery(_ context.Context, broadcastID uuid.UUID) error {
	f.enqueued = append(f.enqueued, broadcastID)
	return nil
}

type fakeSender struct {
	sent    []string
	failFor map[string]error
}

func (f *fakeSender) SendBroadcastEmail(_ context.Context, toEmail, _, _ string) error {
	if err, ok := f.failFor[toEmail]; ok {
		return err
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

func (f *fakeSender) SendRegistrationConfirmation(context.Context, string, string, string) error {
	return nil
}

func recipients(emails ...string) []repository.Recipient {
	out := make([]repository.Recipient, len(emails))
	for i, email := range emails {
		out[i] = repository.Recipient{UserID: uuid.New(), Email: email}
	}
	return out
}

func TestCreateSnapshotsRecipientsAndEnqueues(t *testing.T) {
	store := newFakeStore()
	enqueuer := &fakeEnqueuer{}
	svc := New(store, &fakeRecipients{recipients: recipients("a@example.com", "b@example.com")}, enqueuer, &fakeSender{}, nil)

	id, err := svc.Create(context.Background(), uuid.New(), Input{
		Subject:  "maintenance window",
		Body:     "the portal will be down",
		GroupIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deliveries, _ := store.ListDeliveries(context.Background(), id)
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 delivery rows, got %d", len(deliveries))
	}
	if len(enqueuer.enqueued) != 1 || enqueuer.enqueued[0] != id {
		t.Fatalf("expected delivery enqueued for %s, got %v", id, enqueuer.enqueued)
	}
}

func TestCreateEmptyGroupsTargetsAllMembers(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &fakeRecipients{recipients: recipients("a@example.com", "b@example.com", "c@example.com")}, nil, &fakeSender{}, nil)

	id, err := svc.Create(context.Background(), uuid.New(), Input{Subject: "s", Body: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deliveries, _ := store.ListDeliveries(context.Background(), id)
	if len(deliveries) != 3 {
		t.Fatalf("expected all active members targeted, got %d deliveries", len(deliveries))
	}
}

func TestCreateRejectsNoRecipients(t *testing.T) {
	svc := New(newFakeStore(), &fakeRecipients{}, nil, &fakeSender{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), Input{
		Subject: "s", Body: "b", GroupIDs: []uuid.UUID{uuid.New()},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for group with no members, got %v", err)
	}
}

func TestDeliverMarksOutcomesPerRecipient(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{failFor: map[string]error{"bad@example.com": errors.New("mailbox full")}}
	svc := New(store, &fakeRecipients{recipients: recipients("good@example.com", "bad@example.com")}, nil, sender, nil)

	id, err := svc.Create(context.Background(), uuid.New(), Input{
		Subject: "s", Body: "b", GroupIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Deliver(context.Background(), id); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	deliveries, _ := store.ListDeliveries(context.Background(), id)
	statuses := map[string]string{}
	for _, d := range deliveries {
		statuses[d.Email] = d.Status
	}
	if statuses["good@example.com"] != repository.StatusSent {
		t.Fatalf("expected good recipient sent, got %q", statuses["good@example.com"])
	}
	if statuses["bad@example.com"] != repository.StatusFailed {
		t.Fatalf("expected bad recipient failed, got %q", statuses["bad@example.com"])
	}
	if store.broadcasts[id].Status != repository.StatusSent {
		t.Fatalf("expected broadcast sent with partial failure, got %q", store.broadcasts[id].Status)
	}
}

func TestDeliverAllFailuresMarksBroadcastFailed(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{failFor: map[string]error{"bad@example.com": errors.New("boom")}}
	svc := New(store, &fakeRecipients{recipients: recipients("bad@example.com")}, nil, sender, nil)

	id, err := svc.Create(context.Background(), uuid.New(), Input{
		Subject: "s", Body: "b", GroupIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Deliver(context.Background(), id); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if store.broadcasts[id].Status != repository.StatusFailed {
		t.Fatalf("expected broadcast failed, got %q", store.broadcasts[id].Status)
	}
}

func TestDeliverRetrySkipsSentRecipients(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	svc := New(store, &fakeRecipients{recipients: recipients("a@example.com", "b@example.com")}, nil, sender, nil)

	id, err := svc.Create(context.Background(), uuid.New(), Input{
		Subject: "s", Body: "b", GroupIDs: []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Deliver(context.Background(), id); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if err := svc.Deliver(context.Background(), id); err != nil {
		t.Fatalf("second deliver: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 total sends across retries, got %d", len(sender.sent))
	}
}
