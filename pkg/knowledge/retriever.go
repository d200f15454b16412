package knowledge

import (
	"context"
	"fmt"

	"riverai-be/internal/apperror"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/pkg/embedding"
)

// Retriever performs vector similarity search over ingested documents.
type Retriever struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	topK       int
}

func NewRetriever(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, topK int) (*Retriever, error) {
	if uowFactory == nil {
		return nil, apperror.Configuration("retriever requires a repository factory")
	}
	if embedder == nil {
		return nil, apperror.Configuration("retriever requires an embedding provider")
	}
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		uowFactory: uowFactory,
		embedder:   embedder,
		topK:       topK,
	}, nil
}

// Search embeds the query and returns the closest chunks as documents,
// best match first.
func (r *Retriever) Search(ctx context.Context, query string) ([]*Document, error) {
	resp, err := r.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentEmbeddingRepository().SearchSimilar(ctx, resp.Embedding.Values, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	docs := make([]*Document, 0, len(scored))
	for _, s := range scored {
		docs = append(docs, &Document{
			Content: s.Embedding.Document,
			Name:    s.Embedding.Filename,
			MetaData: map[string]interface{}{
				"file_name":  s.Embedding.Filename,
				"page":       s.Embedding.Page,
				"similarity": s.Similarity,
			},
		})
	}
	return docs, nil
}
