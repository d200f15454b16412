package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatTurn struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	References     []map[string]interface{}
	CreatedAt      time.Time
}
