package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id            uuid.UUID `json:"id"`
	Role          string    `json:"role"`
	Chat          string    `json:"chat"`
	ResponderName string    `json:"responder_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required"`
	// ImageId references an image previously stored through the chat image
	// upload endpoint.
	ImageId string `json:"image_id,omitempty"`
	// ImagePath is resolved server-side from ImageId and is never read from
	// the request body.
	ImagePath string `json:"-"`
}

type UploadChatImageResponse struct {
	ImageId string `json:"image_id"`
}

type SendChatResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Reply         string    `json:"reply"`
	ResponderName string    `json:"responder_name"`
	Trace         []string  `json:"trace,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}
