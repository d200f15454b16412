package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	Content        string     `json:"content" validate:"required"`
	Mode           string     `json:"mode,omitempty" validate:"omitempty,oneof=chat agent"`
}

// SendMessageResponse returns identifiers only. The assistant reply is
// produced by the stream endpoint, not here.
type SendMessageResponse struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	TurnId         uuid.UUID `json:"turn_id"`
	Title          string    `json:"title"`
}

type GetConversationsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Mode      string     `json:"mode"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetTurnsResponse struct {
	Id         uuid.UUID                `json:"id"`
	Role       string                   `json:"role"`
	Content    string                   `json:"content"`
	References []map[string]interface{} `json:"references,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

type RenameConversationRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}
