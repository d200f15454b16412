package mapper

import (
	"riverai-be/internal/entity"
	"riverai-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) RecordToEntity(r *model.DocumentRecord) *entity.DocumentRecord {
	if r == nil {
		return nil
	}
	return &entity.DocumentRecord{
		Id:         r.Id,
		Filename:   r.Filename,
		FilePath:   r.FilePath,
		Ingested:   r.Ingested,
		IngestedAt: r.IngestedAt,
		CreatedAt:  r.CreatedAt,
	}
}

func (m *DocumentMapper) RecordToModel(r *entity.DocumentRecord) *model.DocumentRecord {
	if r == nil {
		return nil
	}
	return &model.DocumentRecord{
		Id:         r.Id,
		Filename:   r.Filename,
		FilePath:   r.FilePath,
		Ingested:   r.Ingested,
		IngestedAt: r.IngestedAt,
		CreatedAt:  r.CreatedAt,
	}
}

func (m *DocumentMapper) EmbeddingToEntity(e *model.DocumentEmbedding) *entity.DocumentEmbedding {
	if e == nil {
		return nil
	}
	return &entity.DocumentEmbedding{
		Id:             e.Id,
		Filename:       e.Filename,
		Page:           e.Page,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *DocumentMapper) EmbeddingToModel(e *entity.DocumentEmbedding) *model.DocumentEmbedding {
	if e == nil {
		return nil
	}
	return &model.DocumentEmbedding{
		Id:             e.Id,
		Filename:       e.Filename,
		Page:           e.Page,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}
