package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentInserted = "insert"
	DocumentUpdated  = "update"
)

// NewDocumentInsertedEvent is published when a document row is first
// registered, so the ingestion watcher can pick it up without polling.
func NewDocumentInsertedEvent(documentId uuid.UUID, chatSessionId uuid.UUID) Event {
	return BaseEvent{
		Type: DocumentInserted,
		Data: map[string]interface{}{
			"document_id":     documentId.String(),
			"chat_session_id": chatSessionId.String(),
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentUpdatedEvent is published when a document row changes status.
func NewDocumentUpdatedEvent(documentId uuid.UUID, status string) Event {
	return BaseEvent{
		Type: DocumentUpdated,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"status":      status,
		},
		OccurredAt: time.Now(),
	}
}
