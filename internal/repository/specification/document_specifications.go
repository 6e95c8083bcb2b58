package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByStatus filters documents by lifecycle status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByContentHash filters by the content-addressed dedup key.
type ByContentHash struct {
	Hash string
}

func (s ByContentHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_hash = ?", s.Hash)
}

// BySession filters records attached to one chat session.
type BySession struct {
	SessionID uuid.UUID
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.SessionID)
}

// ByBlobRef filters records sharing one blob reference.
type ByBlobRef struct {
	BlobRef string
}

func (s ByBlobRef) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("blob_ref = ?", s.BlobRef)
}
