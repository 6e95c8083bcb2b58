package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	Status       string    `json:"status"`
	IndexRef     *string   `json:"index_ref,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type UploadDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Status   string    `json:"status"`
	// Duplicate is true when the same content was already registered for
	// this session and the existing record was returned unchanged.
	Duplicate bool `json:"duplicate"`
}

type DeleteDocumentRequest struct {
	DocumentId uuid.UUID `json:"document_id" validate:"required"`
}
