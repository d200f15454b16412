package contract

import (
	"context"

	"riverai-be/internal/entity"
)

type SessionStateRepository interface {
	// Upsert saves the blob for a key, last-writer-wins.
	Upsert(ctx context.Context, state *entity.SessionState) error
	FindByKey(ctx context.Context, key string) (*entity.SessionState, error)
	DeleteByKey(ctx context.Context, key string) error
}
