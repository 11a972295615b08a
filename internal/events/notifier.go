package events

import (
	"context"
	"fmt"
	"time"

	"member_portal_backend/internal/email"
	"member_portal_backend/internal/events/service"
	membersrepo "member_portal_backend/internal/members/repository"
	platformevents "member_portal_backend/platform/events"
	"member_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// ProfileDirectory resolves a member's profile for notification addressing.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*membersrepo.User, error)
}

// RegistrationNotifier sends a confirmation email when a member registers for
// an event. It subscribes to the event bus so registration stays decoupled
// from mail delivery.
type RegistrationNotifier struct {
	sender   email.Sender
	profiles ProfileDirectory
	log      *logger.Logger
}

// NewRegistrationNotifier creates the notifier.
func NewRegistrationNotifier(sender email.Sender, profiles ProfileDirectory, log *logger.Logger) *RegistrationNotifier {
	return &RegistrationNotifier{sender: sender, profiles: profiles, log: log}
}

// RegisterHandlers subscribes the notifier to registration events.
func (n *RegistrationNotifier) RegisterHandlers(bus platformevents.Bus) {
	bus.Subscribe(service.RegistrationCreated{}.EventName(), platformevents.HandlerFunc(n.handleRegistrationCreated))
}

func (n *RegistrationNotifier) handleRegistrationCreated(ctx context.Context, event platformevents.Event) error {
	ev, ok := event.(service.RegistrationCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	profile, err := n.profiles.GetProfile(ctx, ev.UserID)
	if err != nil {
		return err
	}

	startsAt := ""
	if ev.StartsAt != nil {
		startsAt = ev.StartsAt.Format(time.RFC3339)
	}

	if err := n.sender.SendRegistrationConfirmation(ctx, profile.Email, ev.EventTitle, startsAt); err != nil {
		if n.log != nil {
			n.log.Error("failed to send registration confirmation", "user_id", ev.UserID, "event_id", ev.EventID, "error", err)
		}
		return err
	}
	return nil
}
