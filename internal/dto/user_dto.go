package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	ProfileContext string    `json:"profile_context,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=3"`
	// ProfileContext is the free-text profile note fed to the assistant as
	// user context on every chat turn.
	ProfileContext string `json:"profile_context" validate:"max=2000"`
}
