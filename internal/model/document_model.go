package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename      string    `gorm:"type:varchar(255);not null"`
	ContentHash   string    `gorm:"type:varchar(64);not null;index:idx_documents_owner_hash"`
	BlobRef       string    `gorm:"type:varchar(255);not null"`
	IndexRef      *string   `gorm:"type:varchar(512)"`
	Status        string    `gorm:"type:varchar(32);not null;index"`
	ErrorMessage  *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
