package contract

import (
	"context"

	"riverai-be/internal/entity"
	"riverai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteAllByConversationId hard-deletes every turn of a conversation.
	// Used by the cascading conversation delete, inside its transaction.
	DeleteAllByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatTurn, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
