package implementation

import (
	"context"
	"errors"

	"riverai-be/internal/entity"
	"riverai-be/internal/model"
	"riverai-be/internal/repository/contract"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStateRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionStateRepository(db *gorm.DB) contract.SessionStateRepository {
	return &SessionStateRepositoryImpl{db: db}
}

func (r *SessionStateRepositoryImpl) Upsert(ctx context.Context, state *entity.SessionState) error {
	m := &model.SessionState{
		Key:       state.Key,
		StateJSON: datatypes.JSON(state.StateJSON),
	}
	// Last writer wins on the primary key.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_json", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	state.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *SessionStateRepositoryImpl) FindByKey(ctx context.Context, key string) (*entity.SessionState, error) {
	var m model.SessionState
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.SessionState{
		Key:       m.Key,
		StateJSON: []byte(m.StateJSON),
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r *SessionStateRepositoryImpl) DeleteByKey(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.SessionState{}).Error
}
