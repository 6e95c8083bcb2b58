package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"

	UserStatusPending = "pending"
	UserStatusActive  = "active"
)

type User struct {
	Id            uuid.UUID
	Email         string
	FullName      string
	PasswordHash  *string // nil for OAuth-only accounts
	Role          string
	Status        string
	EmailVerified bool
	// ProfileContext is a free-form summary of the user fed to the supervisor
	// as read-only context for each chat turn.
	ProfileContext string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type EmailVerificationToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
