package entity

import (
	"time"

	"docuchat-be/internal/constant"

	"github.com/google/uuid"
)

// Document is the metadata record for one uploaded file. Many records may share
// the same BlobRef when their bytes are identical for the same owner.
type Document struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	ChatSessionId uuid.UUID
	Filename      string
	ContentHash   string
	BlobRef       string
	IndexRef      *string // set only once processed
	Status        string
	ErrorMessage  *string // set only in error state
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// IsTerminal reports whether the document has left the watcher's reach.
func (d *Document) IsTerminal() bool {
	return d.Status == constant.DocumentStatusProcessed || d.Status == constant.DocumentStatusError
}
