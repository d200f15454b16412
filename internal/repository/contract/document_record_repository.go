package contract

import (
	"context"

	"riverai-be/internal/entity"
	"riverai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRecordRepository interface {
	Create(ctx context.Context, record *entity.DocumentRecord) error
	Update(ctx context.Context, record *entity.DocumentRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
