package lifecycle

import (
	"context"
	"testing"

	memberservice "member_portal_backend/internal/members/service"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type directoryCall struct {
	op    string
	group string
}

type fakeDirectory struct {
	userID  uuid.UUID
	created bool
	calls   []directoryCall
}

func (f *fakeDirectory) FindOrCreate(_ context.Context, in memberservice.FindOrCreateInput) (uuid.UUID, bool, error) {
	if in.Password == nil && f.created {
		return uuid.UUID{}, false, apperr.Validation("password is required for a new user")
	}
	f.calls = append(f.calls, directoryCall{op: "findOrCreate"})
	return f.userID, f.created, nil
}

func (f *fakeDirectory) AddToGroup(_ context.Context, _ uuid.UUID, group string) error {
	f.calls = append(f.calls, directoryCall{op: "add", group: group})
	return nil
}

func (f *fakeDirectory) RemoveFromGroup(_ context.Context, _ uuid.UUID, group string) error {
	f.calls = append(f.calls, directoryCall{op: "remove", group: group})
	return nil
}

var testGroups = GroupNames{Unpaid: "unpaid", Withdrawn: "withdrawn"}

func strPtr(s string) *string { return &s }

func TestHandleRegisterNewUser(t *testing.T) {
	dir := &fakeDirectory{userID: uuid.New(), created: true}
	svc := NewService(dir, testGroups, nil, nil)

	result, err := svc.Handle(context.Background(), Event{
		Email:    "new@example.com",
		Status:   StatusRegister,
		Password: strPtr("secret123"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionCreated {
		t.Fatalf("expected action=%q, got %q", ActionCreated, result.Action)
	}
	if result.UserID != dir.userID {
		t.Fatalf("expected user id propagated")
	}
}

func TestHandleRegisterExistingUser(t *testing.T) {
	dir := &fakeDirectory{userID: uuid.New(), created: false}
	svc := NewService(dir, testGroups, nil, nil)

	result, err := svc.Handle(context.Background(), Event{
		Email:  "member@example.com",
		Status: StatusRegister,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != ActionUpdated {
		t.Fatalf("expected action=%q, got %q", ActionUpdated, result.Action)
	}
}

func TestHandleStatusTransitions(t *testing.T) {
	cases := []struct {
		name       string
		status     Status
		wantAction string
		wantOp     string
		wantGroup  string
	}{
		{"payment failed", StatusPaymentFailed, ActionAddedToUnpaid, "add", "unpaid"},
		{"payment recovered", StatusPaymentRecovered, ActionRemovedFromUnpaid, "remove", "unpaid"},
		{"withdrawn", StatusWithdrawn, ActionAddedToWithdrawn, "add", "withdrawn"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := &fakeDirectory{userID: uuid.New()}
			svc := NewService(dir, testGroups, nil, nil)

			result, err := svc.Handle(context.Background(), Event{
				Email:  "member@example.com",
				Status: tc.status,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Action != tc.wantAction {
				t.Fatalf("expected action=%q, got %q", tc.wantAction, result.Action)
			}

			last := dir.calls[len(dir.calls)-1]
			if last.op != tc.wantOp || last.group != tc.wantGroup {
				t.Fatalf("expected %s on %q, got %s on %q", tc.wantOp, tc.wantGroup, last.op, last.group)
			}
		})
	}
}

func TestHandleInvalidStatusNoSideEffects(t *testing.T) {
	dir := &fakeDirectory{userID: uuid.New()}
	svc := NewService(dir, testGroups, nil, nil)

	_, err := svc.Handle(context.Background(), Event{
		Email:  "member@example.com",
		Status: Status(5),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(dir.calls) != 0 {
		t.Fatalf("expected no directory calls, got %d", len(dir.calls))
	}
}

func TestHandleZeroStatusRejected(t *testing.T) {
	dir := &fakeDirectory{}
	svc := NewService(dir, testGroups, nil, nil)

	_, err := svc.Handle(context.Background(), Event{Email: "member@example.com"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
