package knowledge

import (
	"context"
	"fmt"

	"riverai-be/internal/apperror"
	"riverai-be/internal/entity"
	"riverai-be/internal/pkg/logger"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/pkg/embedding"
	"riverai-be/pkg/pdf"
	"riverai-be/pkg/utils"
)

const (
	defaultChunkSize = 1200
	defaultOverlap   = 150
)

// Store writes embedded document chunks into the vector table.
// Re-upserting the same filename replaces its chunks atomically, so
// concurrent re-ingestions converge on one complete copy.
type Store struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	log        logger.ILogger
	chunkSize  int
	overlap    int
}

// NewStore fails fast when no embedding provider is configured. Callers
// see the problem at startup, not on the first upload.
func NewStore(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, log logger.ILogger) (*Store, error) {
	if uowFactory == nil {
		return nil, apperror.Configuration("knowledge store requires a repository factory")
	}
	if embedder == nil {
		return nil, apperror.Configuration("knowledge store requires an embedding provider")
	}
	return &Store{
		uowFactory: uowFactory,
		embedder:   embedder,
		log:        log,
		chunkSize:  defaultChunkSize,
		overlap:    defaultOverlap,
	}, nil
}

// UpsertDocument chunks and embeds the extracted pages, then replaces the
// document's rows in one transaction. Returns the number of chunks written.
func (s *Store) UpsertDocument(ctx context.Context, filename string, pages []pdf.PageText) (int, error) {
	var rows []*entity.DocumentEmbedding

	for _, page := range pages {
		chunks := utils.SplitText(page.Text, s.chunkSize, s.overlap)
		for idx, chunk := range chunks {
			resp, err := s.embedder.Generate(chunk, "RETRIEVAL_DOCUMENT")
			if err != nil {
				return 0, fmt.Errorf("embed page %d chunk %d: %w", page.Page, idx, err)
			}
			rows = append(rows, &entity.DocumentEmbedding{
				Filename:       filename,
				Page:           page.Page,
				Document:       chunk,
				EmbeddingValue: resp.Embedding.Values,
				ChunkIndex:     idx,
			})
		}
	}

	if len(rows) == 0 {
		return 0, fmt.Errorf("document %s produced no chunks", filename)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	embeddingRepo := uow.DocumentEmbeddingRepository()
	if err := embeddingRepo.DeleteByFilename(ctx, filename); err != nil {
		uow.Rollback()
		return 0, err
	}
	if err := embeddingRepo.CreateBulk(ctx, rows); err != nil {
		uow.Rollback()
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.log.Info("knowledge", "Document upserted", map[string]interface{}{
		"filename": filename,
		"pages":    len(pages),
		"chunks":   len(rows),
	})

	return len(rows), nil
}

// DeleteDocument removes every chunk of a filename.
func (s *Store) DeleteDocument(ctx context.Context, filename string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentEmbeddingRepository().DeleteByFilename(ctx, filename)
}
