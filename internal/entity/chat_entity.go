package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ChatMessage is one persisted exchange side. Trace carries the ordered routing
// decisions made while producing a model message; empty for user messages.
type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Chat          string
	Role          string
	ResponderName string
	Trace         []string
	CreatedAt     time.Time
}
