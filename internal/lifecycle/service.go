// Package lifecycle processes external user lifecycle notifications.
// Each webhook payload resolves to exactly one idempotent operation on the
// member directory: create-or-update, add-to-group, or remove-from-group.
package lifecycle

import (
	"context"

	"member_portal_backend/internal/members/repository"
	memberservice "member_portal_backend/internal/members/service"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/events"
	"member_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Status is the closed enumeration of external lifecycle status codes.
type Status int

const (
	StatusRegister         Status = 1
	StatusPaymentFailed    Status = 2
	StatusPaymentRecovered Status = 3
	StatusWithdrawn        Status = 4
)

// Actions reported back to the webhook caller.
const (
	ActionCreated            = "created"
	ActionUpdated            = "updated"
	ActionAddedToUnpaid      = "added_to_unpaid"
	ActionRemovedFromUnpaid  = "removed_from_unpaid"
	ActionAddedToWithdrawn   = "added_to_withdrawn"
)

// MemberDirectory is the slice of the members service the lifecycle
// handler needs.
type MemberDirectory interface {
	FindOrCreate(ctx context.Context, in memberservice.FindOrCreateInput) (uuid.UUID, bool, error)
	AddToGroup(ctx context.Context, userID uuid.UUID, groupName string) error
	RemoveFromGroup(ctx context.Context, userID uuid.UUID, groupName string) error
}

// GroupNames carries the configured names of the lifecycle status groups.
type GroupNames struct {
	Unpaid    string
	Withdrawn string
}

// Result is the outcome of a processed lifecycle event.
type Result struct {
	Action string
	UserID uuid.UUID
}

// Processed is published on the event bus after a successful transition.
type Processed struct {
	events.BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Status int       `json:"status"`
	Action string    `json:"action"`
}

// EventName implements events.Event.
func (e Processed) EventName() string { return "lifecycle.processed" }

// Service maps lifecycle status codes to member directory operations.
type Service struct {
	directory MemberDirectory
	groups    GroupNames
	bus       events.Bus
	log       *logger.Logger
}

// NewService creates a lifecycle service.
func NewService(directory MemberDirectory, groups GroupNames, bus events.Bus, log *logger.Logger) *Service {
	return &Service{directory: directory, groups: groups, bus: bus, log: log}
}

// Event is the parsed webhook payload.
type Event struct {
	Email    string
	Status   Status
	Password *string
	Profile  repository.ProfileFields
}

// Handle resolves the event to its single operation. Any status outside the
// closed enumeration fails before any side effect.
func (s *Service) Handle(ctx context.Context, ev Event) (Result, error) {
	switch ev.Status {
	case StatusRegister, StatusPaymentFailed, StatusPaymentRecovered, StatusWithdrawn:
	default:
		return Result{}, apperr.Validation("invalid status code")
	}

	userID, created, err := s.directory.FindOrCreate(ctx, memberservice.FindOrCreateInput{
		Email:    ev.Email,
		Password: ev.Password,
		Profile:  ev.Profile,
	})
	if err != nil {
		return Result{}, err
	}

	var action string
	switch ev.Status {
	case StatusRegister:
		if created {
			action = ActionCreated
		} else {
			action = ActionUpdated
		}
	case StatusPaymentFailed:
		if err := s.directory.AddToGroup(ctx, userID, s.groups.Unpaid); err != nil {
			return Result{}, err
		}
		action = ActionAddedToUnpaid
	case StatusPaymentRecovered:
		if err := s.directory.RemoveFromGroup(ctx, userID, s.groups.Unpaid); err != nil {
			return Result{}, err
		}
		action = ActionRemovedFromUnpaid
	case StatusWithdrawn:
		if err := s.directory.AddToGroup(ctx, userID, s.groups.Withdrawn); err != nil {
			return Result{}, err
		}
		action = ActionAddedToWithdrawn
	}

	if s.log != nil {
		s.log.LifecycleEvent(ev.Email, int(ev.Status), action)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, Processed{
			BaseEvent: events.NewBaseEvent(),
			UserID:    userID,
			Email:     ev.Email,
			Status:    int(ev.Status),
			Action:    action,
		})
	}

	return Result{Action: action, UserID: userID}, nil
}
