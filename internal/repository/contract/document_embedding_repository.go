package contract

import (
	"context"

	"riverai-be/internal/entity"
	"riverai-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentEmbedding pairs an embedding row with its cosine similarity.
type ScoredDocumentEmbedding struct {
	Embedding  *entity.DocumentEmbedding
	Similarity float64
}

type DocumentEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.DocumentEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByFilename removes every chunk of a document; paired with
	// CreateBulk in one transaction it forms the upsert-by-document.
	DeleteByFilename(ctx context.Context, filename string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentEmbedding, error)
}
