package broadcast

import (
	"context"

	"member_portal_backend/internal/broadcast/repository"
	"member_portal_backend/internal/broadcast/service"
	membersrepo "member_portal_backend/internal/members/repository"

	"github.com/google/uuid"
)

// MemberRecipientSource adapts the members repository to the broadcast
// service's RecipientSource.
type MemberRecipientSource struct {
	members membersrepo.Store
}

// NewMemberRecipientSource wraps a members store.
func NewMemberRecipientSource(members membersrepo.Store) *MemberRecipientSource {
	return &MemberRecipientSource{members: members}
}

// ActiveRecipients resolves the active members of the targeted groups.
func (s *MemberRecipientSource) ActiveRecipients(ctx context.Context, groupIDs []uuid.UUID) ([]repository.Recipient, error) {
	members, err := s.members.ListActiveRecipients(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	out := make([]repository.Recipient, len(members))
	for i, m := range members {
		out[i] = repository.Recipient{UserID: m.UserID, Email: m.Email}
	}
	return out, nil
}

var _ service.RecipientSource = (*MemberRecipientSource)(nil)
