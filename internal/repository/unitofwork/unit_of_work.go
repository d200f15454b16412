package unitofwork

import (
	"context"

	"riverai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ConversationRepository() contract.ConversationRepository
	ChatTurnRepository() contract.ChatTurnRepository
	DocumentRecordRepository() contract.DocumentRecordRepository
	DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository
	SessionStateRepository() contract.SessionStateRepository
}
