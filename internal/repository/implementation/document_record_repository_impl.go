package implementation

import (
	"context"
	"errors"

	"riverai-be/internal/entity"
	"riverai-be/internal/mapper"
	"riverai-be/internal/model"
	"riverai-be/internal/repository/contract"
	"riverai-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRecordRepository(db *gorm.DB) contract.DocumentRecordRepository {
	return &DocumentRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRecordRepositoryImpl) Create(ctx context.Context, record *entity.DocumentRecord) error {
	m := r.mapper.RecordToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.RecordToEntity(m)
	return nil
}

func (r *DocumentRecordRepositoryImpl) Update(ctx context.Context, record *entity.DocumentRecord) error {
	m := r.mapper.RecordToModel(record)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.RecordToEntity(m)
	return nil
}

func (r *DocumentRecordRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DocumentRecord{}, id).Error
}

func (r *DocumentRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentRecord, error) {
	var m model.DocumentRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RecordToEntity(&m), nil
}

func (r *DocumentRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentRecord, error) {
	var models []*model.DocumentRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DocumentRecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.RecordToEntity(m)
	}
	return entities, nil
}

func (r *DocumentRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
