package mapper

import (
	"time"

	"riverai-be/internal/entity"
	"riverai-be/internal/model"

	"gorm.io/gorm"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	var updatedAt *time.Time
	if !u.UpdatedAt.IsZero() {
		t := u.UpdatedAt
		updatedAt = &t
	}

	return &entity.User{
		Id:           u.Id,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		ApiBaseURL:   u.ApiBaseURL,
		ApiKey:       u.ApiKey,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    updatedAt,
		IsDeleted:    u.DeletedAt.Valid,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if u.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if u.UpdatedAt != nil {
		updatedAt = *u.UpdatedAt
	}

	return &model.User{
		Id:           u.Id,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		ApiBaseURL:   u.ApiBaseURL,
		ApiKey:       u.ApiKey,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}
