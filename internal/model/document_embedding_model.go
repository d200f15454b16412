package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// DocumentEmbedding is one embedded chunk of an ingested PDF, keyed by
// source filename + page for upsert-by-document semantics.
type DocumentEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename       string          `gorm:"type:varchar(512);not null;index"`
	Page           int             `gorm:"not null;default:0"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	ChunkIndex     int             `gorm:"default:0"` // 0-based index for ordering within a page
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentEmbedding) TableName() string {
	return "document_embeddings"
}
