package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// DocumentEmbedding is one embedded chunk of a document, used by the local
// pgvector indexing provider. Unused when INDEXING_PROVIDER=google.
type DocumentEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreName      string          `gorm:"type:varchar(255);not null;index"`
	DisplayName    string          `gorm:"type:varchar(255);not null"`
	ChunkIndex     int             `gorm:"not null"`
	Chunk          string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentEmbedding) TableName() string {
	return "document_embeddings"
}
