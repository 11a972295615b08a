package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"member_portal_backend/internal/members/repository"
	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	users       map[uuid.UUID]*repository.User
	identities  map[uuid.UUID]string
	groups      map[string]*repository.Group
	memberships map[[2]uuid.UUID]*repository.Membership

	failCreateUser bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[uuid.UUID]*repository.User),
		identities:  make(map[uuid.UUID]string),
		groups:      make(map[string]*repository.Group),
		memberships: make(map[[2]uuid.UUID]*repository.Membership),
	}
}

func (f *fakeStore) addGroup(name string) *repository.Group {
	g := &repository.Group{ID: uuid.New(), Name: name}
	f.groups[name] = g
	return g
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*repository.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeStore) ListUsers(_ context.Context) ([]repository.User, error) {
	var out []repository.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) CreateIdentity(_ context.Context, email, hash string) (uuid.UUID, error) {
	id := uuid.New()
	f.identities[id] = email
	return id, nil
}

func (f *fakeStore) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	delete(f.identities, id)
	return nil
}

func (f *fakeStore) CreateUser(_ context.Context, identityID uuid.UUID, email string, fields repository.ProfileFields) (uuid.UUID, error) {
	if f.failCreateUser {
		return uuid.UUID{}, errors.New("insert failed")
	}
	id := uuid.New()
	f.users[id] = &repository.User{
		ID:             id,
		AuthIdentityID: &identityID,
		Email:          email,
		LastName:       fields.LastName,
		FirstName:      fields.FirstName,
		Phone:          fields.Phone,
		PostalCode:     fields.PostalCode,
		Address:        fields.Address,
	}
	return id, nil
}

func (f *fakeStore) UpdateUserFields(_ context.Context, id uuid.UUID, fields repository.ProfileFields) error {
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	if fields.LastName != nil {
		u.LastName = fields.LastName
	}
	if fields.FirstName != nil {
		u.FirstName = fields.FirstName
	}
	if fields.Phone != nil {
		u.Phone = fields.Phone
	}
	if fields.PostalCode != nil {
		u.PostalCode = fields.PostalCode
	}
	if fields.Address != nil {
		u.Address = fields.Address
	}
	return nil
}

func (f *fakeStore) GetGroupByName(_ context.Context, name string) (*repository.Group, error) {
	return f.groups[name], nil
}

func (f *fakeStore) ListGroups(_ context.Context) ([]repository.Group, error) {
	var out []repository.Group
	for _, g := range f.groups {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeStore) UpsertMembership(_ context.Context, userID, groupID uuid.UUID) error {
	key := [2]uuid.UUID{userID, groupID}
	if m, ok := f.memberships[key]; ok {
		m.DeletedAt = nil
		return nil
	}
	f.memberships[key] = &repository.Membership{ID: uuid.New(), UserID: userID, GroupID: groupID}
	return nil
}

func (f *fakeStore) SoftDeleteMembership(_ context.Context, userID, groupID uuid.UUID) error {
	if m, ok := f.memberships[[2]uuid.UUID{userID, groupID}]; ok && m.DeletedAt == nil {
		now := time.Now()
		m.DeletedAt = &now
	}
	return nil
}

func (f *fakeStore) GetMembership(_ context.Context, userID, groupID uuid.UUID) (*repository.Membership, error) {
	return f.memberships[[2]uuid.UUID{userID, groupID}], nil
}

func (f *fakeStore) ListGroupIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for key, m := range f.memberships {
		if key[0] == userID && m.DeletedAt == nil {
			out = append(out, key[1])
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveRecipients(_ context.Context, groupIDs []uuid.UUID) ([]repository.Recipient, error) {
	target := make(map[uuid.UUID]bool, len(groupIDs))
	for _, id := range groupIDs {
		target[id] = true
	}
	var out []repository.Recipient
	for key, m := range f.memberships {
		if m.DeletedAt == nil && target[key[1]] {
			if u, ok := f.users[key[0]]; ok {
				out = append(out, repository.Recipient{UserID: u.ID, Email: u.Email})
			}
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func TestFindOrCreateNewUser(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	id, created, err := svc.FindOrCreate(context.Background(), FindOrCreateInput{
		Email:    "  New.User@Example.COM ",
		Password: strPtr("secret123"),
		Profile:  repository.ProfileFields{LastName: strPtr("Sato")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}

	u := store.users[id]
	if u == nil {
		t.Fatalf("user row missing")
	}
	if u.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if len(store.identities) != 1 {
		t.Fatalf("expected one auth identity, got %d", len(store.identities))
	}
}

func TestFindOrCreateExistingPartialUpdate(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	id, _, err := svc.FindOrCreate(context.Background(), FindOrCreateInput{
		Email:    "member@example.com",
		Password: strPtr("secret123"),
		Profile:  repository.ProfileFields{LastName: strPtr("Sato"), FirstName: strPtr("Hanako")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second call with only LastName set must leave FirstName untouched.
	sameID, created, err := svc.FindOrCreate(context.Background(), FindOrCreateInput{
		Email:   "MEMBER@example.com",
		Profile: repository.ProfileFields{LastName: strPtr("Suzuki")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false for existing user")
	}
	if sameID != id {
		t.Fatalf("expected same user id")
	}

	u := store.users[id]
	if u.LastName == nil || *u.LastName != "Suzuki" {
		t.Fatalf("expected last name updated, got %v", u.LastName)
	}
	if u.FirstName == nil || *u.FirstName != "Hanako" {
		t.Fatalf("expected first name untouched, got %v", u.FirstName)
	}
}

func TestFindOrCreateNewUserWithoutPassword(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	_, _, err := svc.FindOrCreate(context.Background(), FindOrCreateInput{
		Email: "nobody@example.com",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.users) != 0 || len(store.identities) != 0 {
		t.Fatalf("expected no side effects, got users=%d identities=%d", len(store.users), len(store.identities))
	}
}

func TestFindOrCreateCompensatesIdentityOnUserInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreateUser = true
	svc := New(store, nil)

	_, _, err := svc.FindOrCreate(context.Background(), FindOrCreateInput{
		Email:    "nobody@example.com",
		Password: strPtr("secret123"),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(store.identities) != 0 {
		t.Fatalf("expected compensating identity delete, %d identities remain", len(store.identities))
	}
}

func TestAddToGroupIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addGroup("unpaid")
	svc := New(store, nil)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if err := svc.AddToGroup(context.Background(), userID, "unpaid"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	active := 0
	for _, m := range store.memberships {
		if m.DeletedAt == nil {
			active++
		}
	}
	if active != 1 || len(store.memberships) != 1 {
		t.Fatalf("expected exactly one active row, got %d active of %d", active, len(store.memberships))
	}
}

func TestRemoveFromGroupAbsentIsNoop(t *testing.T) {
	store := newFakeStore()
	store.addGroup("unpaid")
	svc := New(store, nil)

	if err := svc.RemoveFromGroup(context.Background(), uuid.New(), "unpaid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.memberships) != 0 {
		t.Fatalf("expected no rows created, got %d", len(store.memberships))
	}
}

func TestReactivationReusesRow(t *testing.T) {
	store := newFakeStore()
	store.addGroup("withdrawn")
	svc := New(store, nil)
	userID := uuid.New()

	if err := svc.AddToGroup(context.Background(), userID, "withdrawn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var originalID uuid.UUID
	for _, m := range store.memberships {
		originalID = m.ID
	}

	if err := svc.RemoveFromGroup(context.Background(), userID, "withdrawn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AddToGroup(context.Background(), userID, "withdrawn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.memberships) != 1 {
		t.Fatalf("expected single row reused, got %d", len(store.memberships))
	}
	for _, m := range store.memberships {
		if m.ID != originalID {
			t.Fatalf("expected same row id after reactivation")
		}
		if m.DeletedAt != nil {
			t.Fatalf("expected row active after reactivation")
		}
	}
}

func TestAddToGroupMissingGroupIsConfigurationError(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	err := svc.AddToGroup(context.Background(), uuid.New(), "unpaid")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal (configuration) error, got %v", err)
	}
}
