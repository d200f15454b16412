package mapper

import (
	"encoding/json"
	"time"

	"riverai-be/internal/entity"
	"riverai-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Mode:      c.Mode,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: c.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Mode:      c.Mode,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Turn Mappers

func (m *ChatMapper) ChatTurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	var refs []map[string]interface{}
	if len(t.References) > 0 {
		// Corrupt reference blobs degrade to nil rather than failing the read.
		_ = json.Unmarshal(t.References, &refs)
	}

	return &entity.ChatTurn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		Role:           t.Role,
		Content:        t.Content,
		References:     refs,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ChatMapper) ChatTurnToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	var refs datatypes.JSON
	if len(t.References) > 0 {
		if b, err := json.Marshal(t.References); err == nil {
			refs = datatypes.JSON(b)
		}
	}

	return &model.ChatTurn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		Role:           t.Role,
		Content:        t.Content,
		References:     refs,
		CreatedAt:      t.CreatedAt,
	}
}
