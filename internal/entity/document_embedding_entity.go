package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentEmbedding struct {
	Id             uuid.UUID
	Filename       string
	Page           int
	Document       string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
}
