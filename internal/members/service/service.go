// Package service implements member account operations: find-or-create with
// the auth-identity compensating action, idempotent group membership
// transitions, and profile management.
package service

import (
	"context"
	"strings"

	"member_portal_backend/internal/members/repository"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/logger"
	"member_portal_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service coordinates member account state.
type Service struct {
	store repository.Store
	log   *logger.Logger
}

// New creates a members service.
func New(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// FindOrCreateInput carries the natural key, optional credential, and
// partial profile for FindOrCreate.
type FindOrCreateInput struct {
	Email    string
	Password *string
	Profile  repository.ProfileFields
}

// NormalizeEmail trims and lowercases an email for use as the natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindOrCreate looks up a user by normalized email. An existing user gets a
// partial profile update (nil fields untouched) and created=false. A new
// user requires a password: an auth identity is created first, then the user
// row; if the user insert fails the identity is deleted again so no orphaned
// identity remains.
func (s *Service) FindOrCreate(ctx context.Context, in FindOrCreateInput) (uuid.UUID, bool, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return uuid.UUID{}, false, apperr.Validation("email is required")
	}

	profile := in.Profile
	if profile.Phone != nil {
		normalized := phone.NormalizeE164(*profile.Phone)
		profile.Phone = &normalized
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return uuid.UUID{}, false, apperr.Storage("members.find_by_email", err)
	}

	if existing != nil {
		if err := s.store.UpdateUserFields(ctx, existing.ID, profile); err != nil {
			return uuid.UUID{}, false, apperr.Storage("members.update_profile", err)
		}
		return existing.ID, false, nil
	}

	if in.Password == nil || *in.Password == "" {
		return uuid.UUID{}, false, apperr.Validation("password is required for a new user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.UUID{}, false, apperr.Internal("failed to hash password")
	}

	identityID, err := s.store.CreateIdentity(ctx, email, string(hash))
	if err != nil {
		return uuid.UUID{}, false, apperr.Storage("members.create_identity", err)
	}

	userID, err := s.store.CreateUser(ctx, identityID, email, profile)
	if err != nil {
		// Roll back the identity so a retry does not hit a dangling
		// credential with no user row behind it.
		if delErr := s.store.DeleteIdentity(ctx, identityID); delErr != nil && s.log != nil {
			s.log.DatabaseError("members.rollback_identity", delErr)
		}
		return uuid.UUID{}, false, apperr.Storage("members.create_user", err)
	}

	return userID, true, nil
}

// AddToGroup activates the user's membership in the named group.
// Idempotent: an active membership is a no-op, a soft-deleted one is
// reactivated in place. A missing group is a configuration error.
func (s *Service) AddToGroup(ctx context.Context, userID uuid.UUID, groupName string) error {
	group, err := s.resolveGroup(ctx, groupName)
	if err != nil {
		return err
	}
	if err := s.store.UpsertMembership(ctx, userID, group.ID); err != nil {
		return apperr.Storage("members.add_membership", err)
	}
	return nil
}

// RemoveFromGroup soft-deletes the user's membership in the named group.
// Idempotent: absent or already-removed memberships are a no-op.
func (s *Service) RemoveFromGroup(ctx context.Context, userID uuid.UUID, groupName string) error {
	group, err := s.resolveGroup(ctx, groupName)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteMembership(ctx, userID, group.ID); err != nil {
		return apperr.Storage("members.remove_membership", err)
	}
	return nil
}

func (s *Service) resolveGroup(ctx context.Context, name string) (*repository.Group, error) {
	group, err := s.store.GetGroupByName(ctx, name)
	if err != nil {
		return nil, apperr.Storage("members.resolve_group", err)
	}
	if group == nil {
		return nil, apperr.Configuration("group not configured: " + name)
	}
	return group, nil
}

// AddMembership activates a membership by group ID (admin operation).
func (s *Service) AddMembership(ctx context.Context, userID, groupID uuid.UUID) error {
	if err := s.store.UpsertMembership(ctx, userID, groupID); err != nil {
		return apperr.Storage("members.add_membership", err)
	}
	return nil
}

// RemoveMembership soft-deletes a membership by group ID (admin operation).
func (s *Service) RemoveMembership(ctx context.Context, userID, groupID uuid.UUID) error {
	if err := s.store.SoftDeleteMembership(ctx, userID, groupID); err != nil {
		return apperr.Storage("members.remove_membership", err)
	}
	return nil
}

// GetProfile returns a user's account.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile applies a member-initiated partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, fields repository.ProfileFields) (*repository.User, error) {
	if fields.Phone != nil {
		normalized := phone.NormalizeE164(*fields.Phone)
		fields.Phone = &normalized
	}
	if err := s.store.UpdateUserFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, userID)
}

// ListUsers returns all active users for the admin dashboard.
func (s *Service) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.store.ListUsers(ctx)
}

// ListGroups returns all groups.
func (s *Service) ListGroups(ctx context.Context) ([]repository.Group, error) {
	return s.store.ListGroups(ctx)
}

// GroupIDs returns the active group IDs for a user.
func (s *Service) GroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.store.ListGroupIDs(ctx, userID)
}
