package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the members service depends on.
// Implemented by Repository; tests substitute an in-memory fake.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateIdentity(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
	CreateUser(ctx context.Context, authIdentityID uuid.UUID, email string, fields ProfileFields) (uuid.UUID, error)
	UpdateUserFields(ctx context.Context, id uuid.UUID, fields ProfileFields) error
	GetGroupByName(ctx context.Context, name string) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	UpsertMembership(ctx context.Context, userID, groupID uuid.UUID) error
	SoftDeleteMembership(ctx context.Context, userID, groupID uuid.UUID) error
	GetMembership(ctx context.Context, userID, groupID uuid.UUID) (*Membership, error)
	ListGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListActiveRecipients(ctx context.Context, groupIDs []uuid.UUID) ([]Recipient, error)
}

var _ Store = (*Repository)(nil)
