// Package transport defines the request/response DTOs for the members module.
package transport

import (
	"time"

	"member_portal_backend/internal/members/repository"

	"github.com/google/uuid"
)

// UserResponse is the JSON shape for a member account.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	LastName   *string   `json:"lastName"`
	FirstName  *string   `json:"firstName"`
	Phone      *string   `json:"phone"`
	PostalCode *string   `json:"postalCode"`
	Address    *string   `json:"address"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ToUserResponse maps the database model to the response DTO.
func ToUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		LastName:   u.LastName,
		FirstName:  u.FirstName,
		Phone:      u.Phone,
		PostalCode: u.PostalCode,
		Address:    u.Address,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// UpdateProfileRequest is a partial profile update; omitted fields are untouched.
type UpdateProfileRequest struct {
	LastName   *string `json:"lastName" validate:"omitempty,max=100"`
	FirstName  *string `json:"firstName" validate:"omitempty,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	PostalCode *string `json:"postalCode" validate:"omitempty,max=10"`
	Address    *string `json:"address" validate:"omitempty,max=300"`
}

// Fields converts the request into repository profile fields.
func (r UpdateProfileRequest) Fields() repository.ProfileFields {
	return repository.ProfileFields{
		LastName:   r.LastName,
		FirstName:  r.FirstName,
		Phone:      r.Phone,
		PostalCode: r.PostalCode,
		Address:    r.Address,
	}
}

// GroupResponse is the JSON shape for a group.
type GroupResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
}

// AddMembershipRequest adds a user to a group.
type AddMembershipRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}
