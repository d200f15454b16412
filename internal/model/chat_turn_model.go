package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTurn struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role           string         `gorm:"type:varchar(50);not null"`
	Content        string         `gorm:"type:text;not null"`
	References     datatypes.JSON `gorm:"type:jsonb"` // Normalized retrieval references, assistant turns only
	CreatedAt      time.Time      `gorm:"autoCreateTime;index"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
